package outcome

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/outcome/pkg/types"
)

// Step is one sub-operation of a batch.
type Step[T any] func(ctx context.Context) Outcome[T]

// Collect runs steps concurrently, at most limit at a time (limit <= 0 means no
// bound), and returns their outcomes in input order. A step that has not started
// by the time ctx is done is recorded as a Timeout error instead of being run.
func Collect[T any](ctx context.Context, limit int, steps ...Step[T]) []Outcome[T] {
	out := make([]Outcome[T], len(steps))
	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, step := range steps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = ErrorWithKind[T](err.Error(), types.KindTimeout)
				return nil
			}
			out[i] = step(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
