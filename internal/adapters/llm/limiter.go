package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/PabloGalante/advocate/internal/domain"
)

// RateLimited caps the request rate to the wrapped generator. Requests wait
// for a token until their context ends.
type RateLimited struct {
	next    domain.MessageGenerator
	limiter *rate.Limiter
}

func NewRateLimited(next domain.MessageGenerator, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *RateLimited) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generation rate limit: %w", err)
	}
	return r.next.Generate(ctx, req)
}
