package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrDivergence is returned when the server returns the same cursor it was
// just asked for, which would loop forever if followed.
var ErrDivergence = errors.New("pagination did not converge")

// Page is a single page of a cursor-paginated listing. An empty NextCursor
// means the listing is exhausted.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// FetchFunc fetches one page starting at cursor. The first page is requested
// with an empty cursor. Implementations are expected to carry their own
// retry/resilience; the walker treats any error as fatal for the traversal.
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Collect walks a paginated listing and returns all items in fetch order.
// When followAll is false only the first page is fetched, regardless of its
// next cursor. On failure the partial aggregate is discarded and a nil slice
// is returned.
func Collect[T any](ctx context.Context, fetch FetchFunc[T], followAll bool) ([]T, error) {
	var items []T
	cursor := ""
	pages := 0

	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}

		items = append(items, page.Items...)
		pages++

		if !followAll || page.NextCursor == "" {
			break
		}

		if page.NextCursor == cursor {
			log.Warn().
				Str("cursor", cursor).
				Int("pages", pages).
				Msg("Server repeated cursor, aborting traversal")
			return nil, fmt.Errorf("%w: cursor %q repeated", ErrDivergence, cursor)
		}

		cursor = page.NextCursor
	}

	log.Debug().
		Int("pages", pages).
		Int("items", len(items)).
		Bool("follow_all", followAll).
		Msg("Pagination complete")

	return items, nil
}
