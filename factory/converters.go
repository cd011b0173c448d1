package factory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ConverterTable maps symbolic names to converters so factories can be
// registered by name before the code providing them is wired in
type ConverterTable struct {
	converters map[string]ConvertFunc
	mu         sync.RWMutex
}

// NewConverterTable creates an empty table
func NewConverterTable() *ConverterTable {
	return &ConverterTable{
		converters: make(map[string]ConvertFunc),
	}
}

// Register adds a named converter. Names are unique within a table.
func (t *ConverterTable) Register(name string, fn ConvertFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("converter name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("converter %s cannot be nil", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.converters[name]; exists {
		return fmt.Errorf("converter %s already registered", name)
	}
	t.converters[name] = fn
	return nil
}

// MustRegister is Register that panics on error, for use from init functions
func (t *ConverterTable) MustRegister(name string, fn ConvertFunc) {
	if err := t.Register(name, fn); err != nil {
		panic(err)
	}
}

// Resolve implements ConverterResolver
func (t *ConverterTable) Resolve(name string) (ConvertFunc, error) {
	t.mu.RLock()
	fn := t.converters[strings.TrimSpace(name)]
	t.mu.RUnlock()

	if fn == nil {
		return nil, fmt.Errorf("%w: converter %s", ErrUnknownSymbol, name)
	}
	return fn, nil
}

// Names returns all registered converter names, sorted
func (t *ConverterTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.converters))
	for name := range t.converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultConverters = NewConverterTable()

// DefaultConverters returns the process-wide converter table
func DefaultConverters() *ConverterTable {
	return defaultConverters
}

// RegisterConverter registers a converter in the process-wide table
func RegisterConverter(name string, fn ConvertFunc) error {
	return defaultConverters.Register(name, fn)
}
