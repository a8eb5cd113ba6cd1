// Package workflow sequences enumeration, evaluation and mutation for the
// archival and ownership transfer runs.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/janitor/internal/mutation"
)

// Summary counts what happened to the entities of a run.
type Summary struct {
	Enumerated  int
	Succeeded   int
	AlreadyDone int
	// Planned counts mutations that a dry run would have performed.
	Planned int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d enumerated, %d succeeded, %d already done, %d planned, %d skipped, %d failed",
		s.Enumerated, s.Succeeded, s.AlreadyDone, s.Planned, s.Skipped, s.Failed)
}

// tally is the concurrency-safe accumulator behind a Summary.
type tally struct {
	mu sync.Mutex
	s  Summary
}

func (t *tally) add(fn func(s *Summary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.s)
}

func (t *tally) outcome(o mutation.Outcome) {
	t.add(func(s *Summary) {
		switch o {
		case mutation.OutcomeSuccess:
			s.Succeeded++
		case mutation.OutcomeAlreadyDone:
			s.AlreadyDone++
		default:
			s.Failed++
		}
	})
}

func (t *tally) enumerated(n int) { t.add(func(s *Summary) { s.Enumerated += n }) }
func (t *tally) planned()         { t.add(func(s *Summary) { s.Planned++ }) }
func (t *tally) skipped()         { t.add(func(s *Summary) { s.Skipped++ }) }
func (t *tally) failed()          { t.add(func(s *Summary) { s.Failed++ }) }

func (t *tally) snapshot(start time.Time) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.s
	s.Elapsed = time.Since(start)
	return s
}

// forEach runs fn over items with at most limit in flight. It stops
// scheduling new items once ctx is done and returns ctx's error.
func forEach[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T)) error {
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}
