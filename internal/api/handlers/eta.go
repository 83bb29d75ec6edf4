package handlers

import (
	"context"
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/services"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Message shown to merchants when no rule serves a destination.
const noRuleAdminMessage = "No delivery rule found for this location"

const maxCartItems = 250

// SnapshotProvider returns the immutable rule snapshot of a shop.
type SnapshotProvider interface {
	Load(ctx context.Context, shop string) (domain.Snapshot, error)
}

// SnapshotInvalidator drops cached shop data after merchant edits.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, shop string) error
}

// ETAHandler serves admin and storefront delivery estimates.
type ETAHandler struct {
	Snapshots       SnapshotProvider
	Invalidator     SnapshotInvalidator
	Now             func() time.Time
	CartConcurrency int
}

func (h *ETAHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *ETAHandler) orderAt(orderDate *dto.OrderDate) time.Time {
	if orderDate != nil {
		return orderDate.Time
	}
	return h.now()
}

// AdminCalculate previews the ETA a shopper would see. Surface flags are
// ignored and a missing rule is reported with explicit guidance.
func (h *ETAHandler) AdminCalculate(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "admin", func(domain.ShopSettings) bool { return true }, noRuleAdminMessage)
}

// ProductETA serves the product-page estimate.
func (h *ETAHandler) ProductETA(w http.ResponseWriter, r *http.Request) {
	surface := domain.SurfaceProduct
	h.single(w, r, string(surface), func(s domain.ShopSettings) bool { return s.Enabled(surface) }, "")
}

func (h *ETAHandler) Cart(w http.ResponseWriter, r *http.Request) {
	h.cart(w, r, domain.SurfaceCart)
}

func (h *ETAHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.cart(w, r, domain.SurfaceCheckout)
}

// InvalidateCache drops the cached snapshot of a shop.
func (h *ETAHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	shop := chi.URLParam(r, "shop")
	if h.Invalidator == nil {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "no cache configured"})
		return
	}

	if err := h.Invalidator.Invalidate(r.Context(), shop); err != nil {
		zap.L().Error("invalidate snapshot cache failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("shop", shop),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, dto.ErrCodeInternal, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *ETAHandler) single(
	w http.ResponseWriter,
	r *http.Request,
	surface string,
	enabled func(domain.ShopSettings) bool,
	noRuleMessage string,
) {
	var req dto.ETARequest
	if err := decodeBody(r, &req); err != nil {
		obs.Calculations.WithLabelValues(surface, obs.OutcomeInvalid).Inc()
		writeError(w, r, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
		return
	}

	if strings.TrimSpace(req.CountryCode) == "" {
		obs.Calculations.WithLabelValues(surface, obs.OutcomeInvalid).Inc()
		writeError(w, r, http.StatusBadRequest, dto.ErrCodeValidation, "country_code is required")
		return
	}

	snap, ok := h.loadSnapshot(w, r, surface)
	if !ok {
		return
	}

	if !enabled(snap.Settings) {
		obs.Calculations.WithLabelValues(surface, obs.OutcomeDisabled).Inc()
		writeError(w, r, http.StatusForbidden, dto.ErrCodeNotEnabled, "delivery estimates are not enabled for this surface")
		return
	}

	dest := domain.NewDestination(req.CountryCode, req.Region, req.PostalCode)
	res, matched, err := services.Calculate(snap, dest, h.orderAt(req.OrderDate))
	if err != nil {
		obs.Calculations.WithLabelValues(surface, obs.OutcomeError).Inc()
		zap.L().Error("calculate eta failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("shop", snap.Shop),
			zap.String("country", dest.Country),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, dto.ErrCodeInternal, "internal server error")
		return
	}

	if !matched {
		obs.Calculations.WithLabelValues(surface, obs.OutcomeNoRule).Inc()
		writeJSON(w, r, http.StatusOK, dto.ETAEnvelope{
			Success: false,
			Error:   dto.ErrCodeNoRule,
			Message: noRuleMessage,
		})
		return
	}

	obs.Calculations.WithLabelValues(surface, obs.OutcomeMatched).Inc()
	writeJSON(w, r, http.StatusOK, dto.ETAEnvelope{Success: true, ETA: toETAResponse(res)})
}

func (h *ETAHandler) cart(w http.ResponseWriter, r *http.Request, surface domain.Surface) {
	label := string(surface)

	var req dto.CartRequest
	if err := decodeBody(r, &req); err != nil {
		obs.Calculations.WithLabelValues(label, obs.OutcomeInvalid).Inc()
		writeError(w, r, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
		return
	}

	if strings.TrimSpace(req.CountryCode) == "" {
		obs.Calculations.WithLabelValues(label, obs.OutcomeInvalid).Inc()
		writeError(w, r, http.StatusBadRequest, dto.ErrCodeValidation, "country_code is required")
		return
	}
	if len(req.Items) == 0 {
		obs.Calculations.WithLabelValues(label, obs.OutcomeInvalid).Inc()
		writeError(w, r, http.StatusBadRequest, dto.ErrCodeValidation, "items must not be empty")
		return
	}
	if len(req.Items) > maxCartItems {
		obs.Calculations.WithLabelValues(label, obs.OutcomeInvalid).Inc()
		writeError(w, r, http.StatusBadRequest, dto.ErrCodeValidation, "too many items")
		return
	}

	snap, ok := h.loadSnapshot(w, r, label)
	if !ok {
		return
	}

	if !snap.Settings.Enabled(surface) {
		obs.Calculations.WithLabelValues(label, obs.OutcomeDisabled).Inc()
		writeJSON(w, r, http.StatusForbidden, dto.CartEnvelope{
			Success: false,
			Error:   dto.ErrCodeNotEnabled,
			Message: "delivery estimates are not enabled for this surface",
		})
		return
	}

	lines := make([]services.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, services.CartLine{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	out, err := services.CalculateCart(r.Context(), snap, services.CartRequest{
		Destination: domain.NewDestination(req.CountryCode, req.Region, req.PostalCode),
		Lines:       lines,
		OrderAt:     h.orderAt(req.OrderDate),
		Policy:      snap.Settings.Policy,
		Concurrency: h.CartConcurrency,
	})
	if err != nil {
		obs.Calculations.WithLabelValues(label, obs.OutcomeError).Inc()
		zap.L().Error("calculate cart eta failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("shop", snap.Shop),
			zap.String("surface", label),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, dto.ErrCodeInternal, "internal server error")
		return
	}

	res := dto.CartEnvelope{
		Success:      out.Matched,
		Policy:       string(snap.Settings.Policy),
		MatchedLines: out.MatchedLines,
		Lines:        make([]dto.LineResponse, 0, len(out.Lines)),
	}
	for _, l := range out.Lines {
		lr := dto.LineResponse{ProductID: l.ProductID, VariantID: l.VariantID, Matched: l.Matched}
		if l.Matched {
			lr.ETA = toETAResponse(l.Result)
		}
		res.Lines = append(res.Lines, lr)
	}

	if !out.Matched {
		obs.Calculations.WithLabelValues(label, obs.OutcomeNoRule).Inc()
		res.Error = dto.ErrCodeNoRule
		writeJSON(w, r, http.StatusOK, res)
		return
	}

	obs.Calculations.WithLabelValues(label, obs.OutcomeMatched).Inc()
	res.ETA = toETAResponse(out.Aggregated)
	writeJSON(w, r, http.StatusOK, res)
}

// loadSnapshot writes the error response itself and reports ok=false on failure.
func (h *ETAHandler) loadSnapshot(w http.ResponseWriter, r *http.Request, surface string) (domain.Snapshot, bool) {
	shop := chi.URLParam(r, "shop")

	snap, err := h.Snapshots.Load(r.Context(), shop)
	if errors.Is(err, domain.ErrShopNotFound) {
		obs.Calculations.WithLabelValues(surface, obs.OutcomeInvalid).Inc()
		writeError(w, r, http.StatusNotFound, dto.ErrCodeShopNotFound, "shop not found")
		return domain.Snapshot{}, false
	}
	if err != nil {
		obs.Calculations.WithLabelValues(surface, obs.OutcomeError).Inc()
		zap.L().Error("load snapshot failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("shop", shop),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, dto.ErrCodeInternal, "internal server error")
		return domain.Snapshot{}, false
	}

	return snap, true
}
