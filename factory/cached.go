package factory

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"weak"

	"golang.org/x/sync/singleflight"
)

// CachedConverter wraps a conversion so that repeated conversions of the
// same adaptee (by identity) return the same adapter. Entries are keyed
// weakly on the adaptee and dropped once it becomes unreachable.
//
// Adapters that hold a strong reference back to their adaptee keep the
// entry alive for as long as the converter itself; use Forget or Clear when
// the adaptee's lifecycle ends.
//
// Pointers to distinct zero-size values may be equal, so a zero-size T is
// converted on every call and never cached.
type CachedConverter[T any] struct {
	fn       func(*T) (any, error)
	zeroSize bool

	entries map[weak.Pointer[T]]any
	mu      sync.Mutex

	// inflight collapses concurrent first conversions of one adaptee
	inflight singleflight.Group
}

// Cached wraps fn with an identity cache. Adaptees that are not a non-nil *T
// are declined.
func Cached[T any](fn func(*T) (any, error)) *CachedConverter[T] {
	return &CachedConverter[T]{
		fn:       fn,
		zeroSize: reflect.TypeFor[T]().Size() == 0,
		entries:  make(map[weak.Pointer[T]]any),
	}
}

// Convert implements ConvertFunc
func (c *CachedConverter[T]) Convert(adaptee any) (any, error) {
	ptr, ok := adaptee.(*T)
	if !ok || ptr == nil {
		return nil, nil
	}
	if c.zeroSize {
		return c.fn(ptr)
	}

	key := weak.Make(ptr)
	if adapter, hit := c.lookup(key); hit {
		return adapter, nil
	}

	adapter, err, _ := c.inflight.Do(fmt.Sprintf("%p", ptr), func() (any, error) {
		if adapter, hit := c.lookup(key); hit {
			return adapter, nil
		}

		adapter, err := c.fn(ptr)
		if err != nil {
			return nil, err
		}
		// Declines are not cached: the adaptee may become convertible later
		if IsNil(adapter) {
			return nil, nil
		}

		c.mu.Lock()
		c.entries[key] = adapter
		c.mu.Unlock()
		runtime.AddCleanup(ptr, c.evict, key)

		return adapter, nil
	})
	return adapter, err
}

// Func returns Convert as a ConvertFunc
func (c *CachedConverter[T]) Func() ConvertFunc {
	return c.Convert
}

// Forget drops the cached adapter for adaptee, if any
func (c *CachedConverter[T]) Forget(adaptee *T) {
	if adaptee == nil {
		return
	}
	c.evict(weak.Make(adaptee))
}

// Clear drops every cached adapter
func (c *CachedConverter[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of cached adapters
func (c *CachedConverter[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// IsEmpty reports whether the cache holds no adapters
func (c *CachedConverter[T]) IsEmpty() bool {
	return c.Len() == 0
}

func (c *CachedConverter[T]) lookup(key weak.Pointer[T]) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	adapter, hit := c.entries[key]
	return adapter, hit
}

func (c *CachedConverter[T]) evict(key weak.Pointer[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
