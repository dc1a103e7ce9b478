package gateway

import (
	"context"

	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
	"github.com/puntosclub/kiosk-backend/pkg/remote"
)

// RetryingGateway routes every persistence call through the remote call
// executor, so each one gets bounded attempts, per-attempt timeouts, and
// backoff. Writes are not idempotent; a retried insert can land twice when
// the first attempt succeeded after its timeout fired.
type RetryingGateway struct {
	next Gateway
	exec *remote.Executor
}

// WithRetry decorates the gateway with executor-guarded calls.
func WithRetry(next Gateway, exec *remote.Executor) *RetryingGateway {
	return &RetryingGateway{next: next, exec: exec}
}

// do runs fn under the executor. A typed non-retryable error (NOT_FOUND, a
// validation failure) is a settled outcome of a working backend, not a remote
// failure, so it is returned without spending further attempts.
func (g *RetryingGateway) do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	var settled error
	err := g.exec.Do(ctx, name, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
				settled = err
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return settled
}

func (g *RetryingGateway) Query(ctx context.Context, table string, filter map[string]any, dest any, opts ...QueryOpt) error {
	return g.do(ctx, "query."+table, func(ctx context.Context) error {
		return g.next.Query(ctx, table, filter, dest, opts...)
	})
}

func (g *RetryingGateway) QueryOne(ctx context.Context, table string, filter map[string]any, dest any) error {
	return g.do(ctx, "query_one."+table, func(ctx context.Context) error {
		return g.next.QueryOne(ctx, table, filter, dest)
	})
}

func (g *RetryingGateway) Insert(ctx context.Context, table string, rows any) error {
	return g.do(ctx, "insert."+table, func(ctx context.Context) error {
		return g.next.Insert(ctx, table, rows)
	})
}

func (g *RetryingGateway) Update(ctx context.Context, table string, filter map[string]any, patch map[string]any) (int64, error) {
	var affected int64
	err := g.do(ctx, "update."+table, func(ctx context.Context) error {
		n, err := g.next.Update(ctx, table, filter, patch)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	return affected, err
}

func (g *RetryingGateway) Delete(ctx context.Context, table string, filter map[string]any) (int64, error) {
	var affected int64
	err := g.do(ctx, "delete."+table, func(ctx context.Context) error {
		n, err := g.next.Delete(ctx, table, filter)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	return affected, err
}

func (g *RetryingGateway) CallProcedure(ctx context.Context, name string, args ...any) error {
	return g.do(ctx, "procedure."+name, func(ctx context.Context) error {
		return g.next.CallProcedure(ctx, name, args...)
	})
}
