// Package pagination provides a lazy page iterator for page-numbered REST
// collections whose end is only discoverable by receiving a short page.
package pagination

import (
	"context"
	"iter"
)

// DefaultPageSize is the largest page size most REST APIs accept
const DefaultPageSize = 100

// FetchFunc fetches one page. Pages are numbered from 1.
type FetchFunc[T any] func(ctx context.Context, page, pageSize int) ([]T, error)

// Pages returns a lazy sequence of pages. Iteration stops after the first page
// holding fewer than pageSize items, after the first error (yielded once with
// a nil page), when ctx is done, or when the consumer stops ranging.
// Pages are fetched strictly one after another since the decision to continue
// depends on the previous page.
func Pages[T any](ctx context.Context, pageSize int, fetch FetchFunc[T]) iter.Seq2[[]T, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return func(yield func([]T, error) bool) {
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			items, err := fetch(ctx, page, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(items, nil) {
				return
			}

			if len(items) < pageSize {
				return
			}
		}
	}
}
