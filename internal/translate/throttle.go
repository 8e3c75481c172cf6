package translate

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled limits how often the wrapped Translator is called.
type Throttled struct {
	next    Translator
	limiter *rate.Limiter
}

// NewThrottled allows perSecond calls per second with the given burst.
// A non-positive rate returns next unchanged.
func NewThrottled(next Translator, perSecond float64, burst int) Translator {
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *Throttled) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", &TransportError{Provider: "throttle", Err: err}
	}
	return t.next.Translate(ctx, text, source, target)
}
