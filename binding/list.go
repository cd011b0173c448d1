package binding

import (
	"fmt"
	"sync"

	"github.com/effectus/adaptation/protocol"
)

// List holds a sequence of values, each constrained like a Slot
type List struct {
	elem *Slot

	values []any
	mu     sync.RWMutex
}

// NewList creates an empty list whose elements follow the given options
func NewList(name string, proto *protocol.Type, env Environment, opts ...SlotOption) *List {
	return &List{elem: NewSlot(name, proto, env, opts...)}
}

// Name returns the list name
func (l *List) Name() string {
	return l.elem.name
}

// SetAll validates every value and replaces the contents. Nothing is stored
// unless every element is accepted.
func (l *List) SetAll(values []any) error {
	validated := make([]any, len(values))
	for i, v := range values {
		value, err := l.elem.Validate(v)
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", l.elem.name, i, err)
		}
		validated[i] = value
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = validated
	return nil
}

// Append validates v and adds it to the end
func (l *List) Append(v any) error {
	value, err := l.elem.Validate(v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, value)
	return nil
}

// Values returns a copy of the contents
func (l *List) Values() []any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]any(nil), l.values...)
}

// Len returns the number of elements
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.values)
}
