package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/sony/gobreaker/v2"
)

// Retry and breaker tuning for calls to the back office.
const (
	getRetries      = 2
	getRetryBackoff = 200 * time.Millisecond
	breakerTrips    = 5
	breakerCooldown = 15 * time.Second
)

// transientClassifier retries only failures that never reached the backend.
// HTTP errors, undecodable bodies, an open breaker and a done context fail fast.
type transientClassifier struct{}

func (transientClassifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return retrier.Fail
	}
	return retrier.Retry
}

func newRetrier() *retrier.Retrier {
	return retrier.New(retrier.ConstantBackoff(getRetries, getRetryBackoff), transientClassifier{})
}

// newBreaker opens after breakerTrips consecutive transport or 5xx failures.
// 4xx responses mean the backend is up and do not count.
func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "backoffice-api",
		MaxRequests: 1,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				return !isServerError(err)
			}
			return errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
