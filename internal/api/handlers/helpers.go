package handlers

import (
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, dto.ETAEnvelope{Success: false, Error: code, Message: msg})
}

// WriteError is exported for middleware that rejects requests before a handler runs.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeError(w, r, status, code, msg)
}

// decodeBody strictly decodes exactly one JSON object into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, dto.ErrInvalidOrderDate) {
			return dto.ErrInvalidOrderDate
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

func toETAResponse(res domain.ETAResult) *dto.ETAResponse {
	return &dto.ETAResponse{
		MinDate:  res.MinDate.Format(time.DateOnly),
		MaxDate:  res.MaxDate.Format(time.DateOnly),
		MinDays:  res.MinDays,
		MaxDays:  res.MaxDays,
		Message:  res.Message,
		RuleID:   res.RuleID,
		RuleName: res.RuleName,
		Carrier:  res.Carrier,
		Display:  res.Display,
	}
}
