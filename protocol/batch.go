package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Declaration describes one type of a batch by name, so members of the batch
// may refer to each other
type Declaration struct {
	Name     string
	Kind     Kind
	Bases    []string
	Provides []string
}

// DeclareAll declares a batch of types atomically. A declaration may name
// types declared later in the batch or already in the catalog. On error the
// catalog is left unchanged.
func (c *Catalog) DeclareAll(decls []Declaration) ([]*Type, error) {
	pending := make(map[string]bool, len(decls))
	for _, d := range decls {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("type name cannot be empty")
		}
		if pending[name] {
			return nil, fmt.Errorf("type %s declared twice", name)
		}
		if _, exists := c.Lookup(name); exists {
			return nil, fmt.Errorf("type %s already declared", name)
		}
		pending[name] = true
	}

	built := make(map[string]*Type, len(decls))
	resolve := func(names []string) ([]*Type, bool) {
		types := make([]*Type, 0, len(names))
		for _, name := range names {
			name = strings.TrimSpace(name)
			if t, ok := built[name]; ok {
				types = append(types, t)
				continue
			}
			if pending[name] {
				return nil, false
			}
			t, ok := c.Lookup(name)
			if !ok {
				return nil, false
			}
			types = append(types, t)
		}
		return types, true
	}

	ordered := make([]*Type, 0, len(decls))
	remaining := decls
	for len(remaining) > 0 {
		var deferred []Declaration
		for _, d := range remaining {
			bases, basesOK := resolve(d.Bases)
			provides, providesOK := resolve(d.Provides)
			if !basesOK || !providesOK {
				deferred = append(deferred, d)
				continue
			}

			t, err := c.build(d.Name, d.Kind, &declaration{bases: bases, provides: provides})
			if err != nil {
				return nil, err
			}
			built[t.name] = t
			ordered = append(ordered, t)
		}

		if len(deferred) == len(remaining) {
			return nil, c.unresolvable(deferred, pending)
		}
		remaining = deferred
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range ordered {
		if err := c.checkFreeLocked(t); err != nil {
			return nil, err
		}
	}
	for _, t := range ordered {
		c.types[t.name] = t
	}
	return ordered, nil
}

// unresolvable explains why no remaining declaration could be built
func (c *Catalog) unresolvable(decls []Declaration, pending map[string]bool) error {
	missing := make(map[string]bool)
	for _, d := range decls {
		for _, name := range append(append([]string(nil), d.Bases...), d.Provides...) {
			name = strings.TrimSpace(name)
			if pending[name] {
				continue
			}
			if _, ok := c.Lookup(name); !ok {
				missing[name] = true
			}
		}
	}

	if len(missing) == 0 {
		names := make([]string, 0, len(decls))
		for _, d := range decls {
			names = append(names, strings.TrimSpace(d.Name))
		}
		sort.Strings(names)
		return fmt.Errorf("types derive from each other: %s", strings.Join(names, ", "))
	}

	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("types reference undeclared names: %s", strings.Join(names, ", "))
}
