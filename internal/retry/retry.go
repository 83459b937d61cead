// Package retry runs fallible operations with exponential backoff and jitter.
//
// Each failure is classified into a Kind. Recoverable failures are retried up
// to Policy.MaxRetries times; non-recoverable and unclassified failures end
// the run on the spot with the error unchanged.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"sportsdata/ingestion/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Policy configures one retried call.
type Policy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int

	// InitialDelay is the base wait before the first retry.
	InitialDelay time.Duration

	// BackoffFactor multiplies the base wait for every further retry.
	BackoffFactor float64

	// JitterFraction adds uniform noise in [0, base*JitterFraction).
	JitterFraction float64

	// RecoverableKinds lists the kinds that trigger a retry.
	// Empty means {KindRecoverable}.
	RecoverableKinds []Kind

	// Classify overrides KindOf when set.
	Classify func(error) Kind
}

// DefaultPolicy returns the policy used when the caller has no opinion.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:       3,
		InitialDelay:     1 * time.Second,
		BackoffFactor:    2.0,
		JitterFraction:   0.1,
		RecoverableKinds: []Kind{KindRecoverable},
	}
}

// BaseDelay returns InitialDelay * BackoffFactor^(attempt-1) for attempt >= 1.
func (p Policy) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(attempt-1)))
}

// Delay returns the base delay for attempt plus jitter scaled by r, where r is
// a uniform sample in [0, 1).
func (p Policy) Delay(attempt int, r float64) time.Duration {
	base := p.BaseDelay(attempt)
	if p.JitterFraction <= 0 {
		return base
	}
	return base + time.Duration(float64(base)*p.JitterFraction*r)
}

// kindOf returns the Kind of err under this policy.
func (p Policy) kindOf(err error) Kind {
	if p.Classify != nil {
		return p.Classify(err)
	}
	return KindOf(err)
}

func (p Policy) recoverable(kind Kind) bool {
	if kind == KindUnknown {
		return false
	}
	if len(p.RecoverableKinds) == 0 {
		return kind == KindRecoverable
	}
	return slices.Contains(p.RecoverableKinds, kind)
}

// Executor runs operations under a Policy. The zero value is not usable; use
// NewExecutor.
type Executor struct {
	sleep func(ctx context.Context, d time.Duration) error
	rand  func() float64
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSleeper replaces the backoff wait, mainly for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) { e.sleep = sleep }
}

// WithRand replaces the jitter source. It must return values in [0, 1).
func WithRand(r func() float64) ExecutorOption {
	return func(e *Executor) { e.rand = r }
}

// NewExecutor creates an Executor that sleeps on real timers.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		sleep: sleepContext,
		rand:  rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExecutor = NewExecutor()

// Do runs op under policy with the default executor and returns its value.
func Do[T any](ctx context.Context, policy Policy, name string, op func(context.Context) (T, error)) (T, error) {
	return DoWith(ctx, defaultExecutor, policy, name, op)
}

// DoWith is Do with an explicit Executor.
func DoWith[T any](ctx context.Context, e *Executor, policy Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := e.Run(ctx, policy, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Run executes op until it succeeds, fails permanently, or exhausts the
// policy's retries. The backoff wait is the only place Run blocks; a cancelled
// ctx ends the wait early.
func (e *Executor) Run(ctx context.Context, policy Policy, name string, op func(context.Context) error) error {
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	attempts := 0
	for {
		log.Debug().
			Str("operation", name).
			Int("attempt", attempts+1).
			Int("max_attempts", maxRetries+1).
			Msg("Executing operation")

		err := op(ctx)
		if err == nil {
			if attempts > 0 {
				log.Info().
					Str("operation", name).
					Int("attempt", attempts+1).
					Msg("Operation succeeded after retry")
			}
			return nil
		}

		kind := policy.kindOf(err)
		if !policy.recoverable(kind) {
			log.Error().
				Err(err).
				Str("operation", name).
				Str("kind", kind.String()).
				Msg("Operation failed with non-recoverable error, not retrying")
			return err
		}

		attempts++
		if attempts > maxRetries {
			metrics.RecordRetryExhausted(name)
			log.Error().
				Err(err).
				Str("operation", name).
				Int("attempts", attempts).
				Msg("Retry attempts exhausted")
			return &ExhaustedError{Operation: name, Attempts: attempts, Last: err}
		}

		delay := policy.Delay(attempts, e.rand())
		metrics.RecordRetry(name, delay.Seconds())
		log.Warn().
			Err(err).
			Str("operation", name).
			Int("retry", attempts).
			Int("max_retries", maxRetries).
			Dur("backoff", delay).
			Msg("Recoverable error, retrying after backoff")

		if err := e.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: backoff interrupted after %d attempts: %w", name, attempts, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
