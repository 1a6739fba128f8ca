package token

import "context"

// CounterRepository persists the singleton Counter. Implementations run on the
// transaction carried by ctx when there is one.
type CounterRepository interface {
	// Get returns the counter; found is false when it was never created.
	Get(ctx context.Context) (c Counter, found bool, err error)
	// Init creates the counter if absent and reports whether this call did so.
	Init(ctx context.Context, c Counter) (created bool, err error)
	// CompareAndSwap stores next only if the persisted state still equals old.
	CompareAndSwap(ctx context.Context, old, next Counter) (swapped bool, err error)
}
