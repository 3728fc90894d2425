package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/persistorai/mindmap/internal/metrics"
	"github.com/persistorai/mindmap/internal/models"
)

// Breaker guards a Generator with a circuit breaker, a per-call timeout and
// output sanitizing.
type Breaker struct {
	next    Generator
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	log     *logrus.Logger
}

// NewBreaker wraps next. The circuit opens after 3 consecutive failures or
// a 60% failure rate over at least 5 calls, and probes again after 30s.
func NewBreaker(next Generator, timeout time.Duration, log *logrus.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generate." + next.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}

			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"action":  "generate.breaker",
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
		// A caller giving up is not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{next: next, cb: cb, timeout: timeout, log: log}
}

// Name implements Generator.
func (b *Breaker) Name() string { return b.next.Name() }

// State reports the breaker state for health output.
func (b *Breaker) State() string { return b.cb.State().String() }

// Generate implements Generator.
func (b *Breaker) Generate(ctx context.Context, transcript string) (*models.Graph, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()

	res, err := b.cb.Execute(func() (any, error) {
		g, err := b.next.Generate(ctx, transcript)
		if err != nil {
			return nil, err
		}

		return Sanitize(g)
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GenerateDuration.WithLabelValues(b.next.Name(), outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		return nil, fmt.Errorf("generating graph with %s: %w", b.next.Name(), err)
	}

	g, ok := res.(*models.Graph)
	if !ok {
		return nil, fmt.Errorf("generator %s returned %T", b.next.Name(), res)
	}

	return g, nil
}
