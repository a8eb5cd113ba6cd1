package paginate

import (
	"context"
	"errors"
	"fmt"
)

// ErrTooManyPages is returned when an offset listing hits its page cap.
var ErrTooManyPages = errors.New("page limit reached")

// OffsetPage is one response of a startAt/maxResults endpoint.
type OffsetPage[T any] struct {
	Items []T
	Total int
}

// OffsetFetch loads up to pageSize items starting at startAt.
type OffsetFetch[T any] func(ctx context.Context, startAt, pageSize int) (OffsetPage[T], error)

// Offset walks a startAt/maxResults listing. It stops on the first empty
// page or once startAt reaches the latest reported total, and never issues
// more than maxPages requests, so a stale total cannot keep it looping.
func Offset[T any](ctx context.Context, pageSize, maxPages int, fetch OffsetFetch[T]) ([]T, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	var out []T
	startAt := 0
	for pages := 0; ; pages++ {
		if maxPages > 0 && pages >= maxPages {
			return out, fmt.Errorf("%w after %d pages", ErrTooManyPages, pages)
		}
		page, err := fetch(ctx, startAt, pageSize)
		if err != nil {
			return out, fmt.Errorf("fetching page at %d: %w", startAt, err)
		}
		if len(page.Items) == 0 {
			return out, nil
		}
		out = append(out, page.Items...)
		startAt += len(page.Items)
		if startAt >= page.Total {
			return out, nil
		}
	}
}
