// Package paginate drives list endpoints to exhaustion.
package paginate

import (
	"context"
	"errors"
	"fmt"
)

// ErrCursorCycle is returned when a server hands back a cursor that was
// already followed.
var ErrCursorCycle = errors.New("pagination cursor repeated")

// Page is one response of a cursor-paginated endpoint. An empty Next means
// there are no further pages.
type Page[T any] struct {
	Items []T
	Next  string
}

// CursorFetch loads the page starting at cursor. The first call receives "".
type CursorFetch[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Cursor follows cursors from the first page until the server returns an
// empty one, keeping the items accepted by keep (nil keeps everything).
// Termination depends only on the cursor, never on a reported total.
//
// On a fetch error the items gathered so far are returned with the error.
func Cursor[T any](ctx context.Context, fetch CursorFetch[T], keep func(T) bool) ([]T, error) {
	var (
		out    []T
		cursor string
		used   = map[string]bool{}
	)
	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return out, fmt.Errorf("fetching page: %w", err)
		}
		for _, item := range page.Items {
			if keep == nil || keep(item) {
				out = append(out, item)
			}
		}
		if page.Next == "" {
			return out, nil
		}
		if used[page.Next] {
			return out, fmt.Errorf("%w: %q", ErrCursorCycle, page.Next)
		}
		used[page.Next] = true
		cursor = page.Next
	}
}
