package factory

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Ref holds a value that is either known up front or resolved from a
// symbolic name on first access. Resolution happens at most once; both the
// value and any error are memoized for the lifetime of the Ref.
type Ref[T any] struct {
	name    string
	resolve func(name string) (T, error)

	once   sync.Once
	loaded atomic.Bool
	value  T
	err    error
}

// Resolved creates a Ref that already holds its value
func Resolved[T any](name string, value T) *Ref[T] {
	r := &Ref[T]{name: name, value: value}
	r.once.Do(func() {})
	r.loaded.Store(true)
	return r
}

// Deferred creates a Ref that resolves name with resolve on first access
func Deferred[T any](name string, resolve func(name string) (T, error)) *Ref[T] {
	return &Ref[T]{name: name, resolve: resolve}
}

// Name returns the symbolic name of the referenced value
func (r *Ref[T]) Name() string {
	return r.name
}

// IsResolved reports whether the value has been resolved (successfully or not)
func (r *Ref[T]) IsResolved() bool {
	return r.loaded.Load()
}

// Get returns the referenced value, resolving it if needed
func (r *Ref[T]) Get() (T, error) {
	r.once.Do(func() {
		if r.resolve == nil {
			r.err = fmt.Errorf("%w: %s", ErrUnknownSymbol, r.name)
		} else {
			r.value, r.err = r.resolve(r.name)
		}
		r.loaded.Store(true)
	})
	return r.value, r.err
}
