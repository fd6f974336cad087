package rules

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/adaptivity/internal/ir"
)

// DefaultParallelism is the number of rules evaluated at once when the
// caller does not choose.
const DefaultParallelism = 4

// Run evaluates compiled rules against facts and returns a copy of the
// event of every rule that fired, in the order the rules were given.
//
// Rules are evaluated concurrently, at most limit at a time (limit <= 0
// means DefaultParallelism). facts is only read.
func Run(ctx context.Context, compiled []*Compiled, facts ir.Object, limit int) ([]ir.Event, error) {
	if limit <= 0 {
		limit = DefaultParallelism
	}

	matched := make([]bool, len(compiled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range compiled {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			matched[i] = c.Matches(facts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []ir.Event
	for i, c := range compiled {
		if matched[i] {
			events = append(events, c.Rule.Event.Clone())
		}
	}
	return events, nil
}
