// Package registry holds adapter factories and answers which of them can
// take a given type as their source.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/protocol"
)

// Candidate is a factory applicable to a type, with the specialization
// distance from that type to the factory's source protocol
type Candidate struct {
	Factory  *factory.Factory
	Distance int
}

// Registry is a mutable multiset of adapter factories. Registering the same
// conversion twice yields two candidates; nothing is deduplicated.
type Registry struct {
	// groups holds factories grouped by source protocol name, in order of
	// first registration
	groups []*sourceGroup
	index  map[string]*sourceGroup
	count  int

	logger *slog.Logger

	// mutex for thread safety
	mu sync.RWMutex
}

type sourceGroup struct {
	name      string
	factories []*factory.Factory
}

// Option configures a registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		index:  make(map[string]*sourceGroup),
		logger: slog.Default().With("component", "adaptation.registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a factory
func (r *Registry) Register(f *factory.Factory) error {
	if f == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := f.FromName()
	group, exists := r.index[name]
	if !exists {
		group = &sourceGroup{name: name}
		r.index[name] = group
		r.groups = append(r.groups, group)
	}
	group.factories = append(group.factories, f)
	r.count++

	r.logger.Debug("registered adapter factory",
		"id", f.ID(), "from", f.FromName(), "to", f.ToName())
	return nil
}

// RegisterFactory registers a conversion from one protocol to another
func (r *Registry) RegisterFactory(convert factory.ConvertFunc, from, to *protocol.Type) (*factory.Factory, error) {
	if convert == nil {
		return nil, fmt.Errorf("converter cannot be nil")
	}
	if from == nil || to == nil {
		return nil, fmt.Errorf("protocols cannot be nil")
	}

	f := factory.New(convert, from, to)
	if err := r.Register(f); err != nil {
		return nil, err
	}
	return f, nil
}

// RegisterProvides declares that every provider provides protocol. The
// adaptee itself is used as the adapter.
func (r *Registry) RegisterProvides(provider, proto *protocol.Type) (*factory.Factory, error) {
	return r.RegisterFactory(factory.Identity, provider, proto)
}

// CandidatesFor returns every factory whose source protocol t satisfies,
// ordered by specialization distance, then by source specificity, then by
// registration order. An unresolvable source protocol is a configuration
// error and aborts the scan.
func (r *Registry) CandidatesFor(t *protocol.Type) ([]Candidate, error) {
	if t == nil {
		return nil, nil
	}

	groups := r.snapshot()

	type match struct {
		distance int
		ok       bool
	}
	memo := make(map[*protocol.Type]match)

	var candidates []Candidate
	for _, group := range groups {
		for _, f := range group.factories {
			from, err := f.From()
			if err != nil {
				return nil, err
			}
			m, seen := memo[from]
			if !seen {
				m.distance, m.ok = protocol.SpecializationDistance(t, from)
				memo[from] = m
			}
			if m.ok {
				candidates = append(candidates, Candidate{Factory: f, Distance: m.distance})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return lessCandidate(candidates[i], candidates[j])
	})
	return candidates, nil
}

// lessCandidate orders by distance, then prefers the more specific source
// protocol when one source satisfies the other
func lessCandidate(a, b Candidate) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	fromA, errA := a.Factory.From()
	fromB, errB := b.Factory.From()
	if errA != nil || errB != nil {
		return false
	}
	return protocol.MoreSpecific(fromA, fromB)
}

// snapshot copies the groups so matching runs without holding the lock
func (r *Registry) snapshot() []sourceGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sourceGroup, len(r.groups))
	for i, group := range r.groups {
		out[i] = sourceGroup{
			name:      group.name,
			factories: append([]*factory.Factory(nil), group.factories...),
		}
	}
	return out
}

// Factories returns every registered factory in registration order within
// each source protocol
func (r *Registry) Factories() []*factory.Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*factory.Factory, 0, r.count)
	for _, group := range r.groups {
		out = append(out, group.factories...)
	}
	return out
}

// Len returns the number of registered factories
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Validate resolves every deferred reference and reports all configuration
// errors
func (r *Registry) Validate() error {
	var errs []error
	for _, f := range r.Factories() {
		if err := f.Resolve(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}
