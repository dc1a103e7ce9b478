package remote

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/puntosclub/kiosk-backend/pkg/config"
	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/metrics"
)

const (
	defaultMaxAttempts    = 3
	defaultBaseDelay      = time.Second
	defaultAttemptTimeout = 10 * time.Second
)

// Operation is a single remote call guarded by the executor. It must honor
// ctx cancellation; a call that ignores it keeps running after the attempt is
// scored as a timeout, and its late outcome is dropped.
type Operation func(ctx context.Context) error

// SleepFunc suspends between attempts without holding any lock.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor runs remote operations with a bounded number of attempts, a
// per-attempt timeout, and exponential backoff between attempts.
//
// The wrapped operation is not necessarily idempotent: a retried write can
// duplicate its effect upstream. That risk is accepted, not handled here.
type Executor struct {
	maxAttempts    int
	baseDelay      time.Duration
	attemptTimeout time.Duration
	sleep          SleepFunc
	metrics        *metrics.RemoteCallMetrics
}

// Option customizes executor construction.
type Option func(*Executor)

// WithSleep overrides the inter-attempt suspension.
func WithSleep(fn SleepFunc) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// WithMetrics attaches remote call instrumentation.
func WithMetrics(m *metrics.RemoteCallMetrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New builds an executor from configuration, filling in defaults for
// missing values.
func New(cfg config.RemoteConfig, opts ...Option) *Executor {
	e := &Executor{
		maxAttempts:    cfg.MaxAttempts,
		baseDelay:      cfg.BaseDelay,
		attemptTimeout: cfg.AttemptTimeout,
		sleep:          sleepContext,
	}
	if e.maxAttempts < 1 {
		e.maxAttempts = defaultMaxAttempts
	}
	if e.baseDelay <= 0 {
		e.baseDelay = defaultBaseDelay
	}
	if e.attemptTimeout <= 0 {
		e.attemptTimeout = defaultAttemptTimeout
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do executes op until one attempt succeeds or every attempt is spent. The
// first success returns immediately; otherwise the last observed failure
// propagates. Backoff between attempts is baseDelay * 2^i.
func (e *Executor) Do(ctx context.Context, name string, op Operation) error {
	backoff := retry.NewExponential(e.baseDelay)
	start := time.Now()

	var last error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		e.metrics.IncAttempt(name)

		err := e.runAttempt(ctx, op)
		if err == nil {
			e.metrics.ObserveDuration(name, time.Since(start))
			return nil
		}
		last = err

		if ctx.Err() != nil || attempt == e.maxAttempts-1 {
			break
		}

		delay, stop := backoff.Next()
		if stop {
			break
		}
		e.metrics.IncRetry(name)
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			// The caller stopped waiting; keep the last remote failure.
			break
		}
	}

	e.metrics.IncFailure(name, string(Classify(last)))
	e.metrics.ObserveDuration(name, time.Since(start))
	return last
}

// runAttempt races op against the per-attempt timer. When the timer wins, a
// Timeout failure is synthesized for this attempt and the operation's late
// result is discarded.
func (e *Executor) runAttempt(ctx context.Context, op Operation) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(attemptCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, attemptCtx.Err(), "remote call timed out")
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
