// Package pagination provides cursor-following traversal for paginated
// listing endpoints.
//
// The external API returns pages as {items, next_cursor}; the cursor is an
// opaque token and the next page cannot be requested before the previous one
// has been received, so traversal is strictly sequential. The walker threads
// the cursor as a value from one fetch to the next and aggregates items in
// arrival order.
//
// Example usage:
//
//	items, err := pagination.Collect(ctx, fetchPage, true)
//
// The walker:
//   - Starts with an empty cursor
//   - Appends each page's items in order, no deduplication, no reordering
//   - Stops after the first page when followAll is false
//   - Follows next_cursor until the server omits it
//   - Fails with ErrDivergence when the server repeats a cursor
//   - Aborts the whole traversal on any fetch failure (no partial results)
package pagination
