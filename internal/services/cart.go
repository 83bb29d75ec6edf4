package services

import (
	"context"
	"delivery-eta-service/internal/domain"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Single line of a cart or checkout.
type CartLine struct {
	ProductID string
	VariantID string
	Quantity  int
}

// Per-line outcome. Matched is false when no rule served the line.
type LineETA struct {
	ProductID string
	VariantID string
	Matched   bool
	Result    domain.ETAResult
}

// Combined cart/checkout estimate.
type CartETA struct {
	Lines        []LineETA
	MatchedLines int
	Matched      bool
	Aggregated   domain.ETAResult
}

type CartRequest struct {
	Destination domain.Destination
	Lines       []CartLine
	OrderAt     time.Time
	Policy      domain.AggregationPolicy
	Concurrency int
}

// CalculateCart computes every line independently and aggregates the matched
// lines with req.Policy.
//
// Lines run concurrently (bounded by req.Concurrency) against the same
// immutable snapshot; each goroutine writes only its own slot, so the result
// is identical to a sequential pass and keeps input order for tie-breaks.
func CalculateCart(ctx context.Context, snap domain.Snapshot, req CartRequest) (CartETA, error) {
	lines := make([]LineETA, len(req.Lines))

	limit := req.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, line := range req.Lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, ok, err := Calculate(snap, req.Destination, req.OrderAt)
			if err != nil {
				return fmt.Errorf("line %d product=%q: %w", i+1, line.ProductID, err)
			}

			lines[i] = LineETA{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Matched:   ok,
				Result:    res,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return CartETA{}, fmt.Errorf("calculate cart: %w", err)
	}

	matched := make([]domain.ETAResult, 0, len(lines))
	for _, l := range lines {
		if l.Matched {
			matched = append(matched, l.Result)
		}
	}

	out := CartETA{Lines: lines, MatchedLines: len(matched)}
	out.Aggregated, out.Matched = Aggregate(matched, req.Policy)
	return out, nil
}
