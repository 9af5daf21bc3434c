// Package pagination provides the shared page loop for DropsTab list endpoints.
//
// List endpoints wrap each page in a {"data": {...}} envelope carrying the
// page's items under "content" together with "totalPages" and the zero-based
// "currentPage". The paginator walks pages sequentially from page 0 and
// accumulates content until the result set is exhausted.
//
// Example usage:
//
//	p := pagination.New(apiClient, pagination.DefaultConfig())
//	items, err := p.FetchAll(ctx, "investors", nil)
//
// The loop stops when:
//   - a page returns empty content
//   - pagination metadata is missing or unreadable
//   - currentPage (or the requested page) reaches totalPages-1
//
// Between pages the paginator sleeps a fixed delay. There is no parallel
// fetching and no resume: a failed run restarts from page 0.
package pagination
