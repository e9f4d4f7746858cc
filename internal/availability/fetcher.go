package availability

import "context"

// Fetcher retrieves availability for a hut from the reservation site.
// Implementations must honor context cancellation and return either
// ErrNotFound or a *FetchError on failure.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (*Payload, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, q Query) (*Payload, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, q Query) (*Payload, error) {
	return f(ctx, q)
}
