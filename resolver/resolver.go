// Package resolver finds conversion chains from an adaptee to a requested
// protocol by best-first search over the registered adapter factories.
package resolver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/protocol"
	"github.com/effectus/adaptation/registry"
	"github.com/emirpasic/gods/queues/priorityqueue"
)

// ErrExplorationLimit is returned when a search tries more factories than
// Options.MaxExplored allows
var ErrExplorationLimit = errors.New("adaptation search exceeded exploration limit")

// TypeSource maps values to their protocol types
type TypeSource interface {
	TypeOf(v any) *protocol.Type
}

// CandidateSource lists the factories applicable to a type
type CandidateSource interface {
	CandidatesFor(t *protocol.Type) ([]registry.Candidate, error)
}

// Options configures a resolver
type Options struct {
	// MaxExplored bounds the number of conversions attempted per search.
	// Zero means unbounded.
	MaxExplored int

	// Logger receives search traces at debug level
	Logger *slog.Logger
}

// Result describes a successful or failed search
type Result struct {
	// Adapter is the value satisfying the requested protocol, or nil
	Adapter any

	// Chain lists the factories applied, in order; empty when the adaptee
	// already satisfied the protocol
	Chain []*factory.Factory

	// Weight of the chain that produced Adapter
	Weight Weight

	// Explored counts conversions attempted
	Explored int
}

// Found reports whether an adapter was produced
func (r Result) Found() bool {
	return r.Adapter != nil
}

// Resolver searches for adaptation chains
type Resolver struct {
	types   TypeSource
	sources CandidateSource
	opts    Options
	logger  *slog.Logger
}

// New creates a resolver over a type source and a candidate source
func New(types TypeSource, sources CandidateSource, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "adaptation.resolver")
	}
	return &Resolver{
		types:   types,
		sources: sources,
		opts:    opts,
		logger:  logger,
	}
}

// Resolve returns an adapter for adaptee satisfying to. A nil adapter with a
// nil error means no conversion chain exists. Converter errors and
// configuration errors are returned as soon as they occur.
func (r *Resolver) Resolve(adaptee any, to *protocol.Type) (any, error) {
	result, err := r.ResolveChain(adaptee, to)
	if err != nil {
		return nil, err
	}
	return result.Adapter, nil
}

// ResolveChain is Resolve reporting the chain that was used
func (r *Resolver) ResolveChain(adaptee any, to *protocol.Type) (Result, error) {
	if to == nil {
		return Result{}, fmt.Errorf("target protocol cannot be nil")
	}
	if factory.IsNil(adaptee) {
		return Result{}, nil
	}

	adapteeType := r.types.TypeOf(adaptee)
	if protocol.Satisfies(adapteeType, to) {
		return Result{Adapter: adaptee}, nil
	}

	queue := priorityqueue.NewWith(compareCandidates)
	var seq uint64

	expand := func(object any, objectType *protocol.Type, base Weight, path []*factory.Factory) error {
		candidates, err := r.sources.CandidatesFor(objectType)
		if err != nil {
			return err
		}
		for _, c := range candidates {
			// A factory is used at most once per chain
			if inPath(path, c.Factory) {
				continue
			}
			seq++
			queue.Enqueue(&candidate{
				weight: base.Add(c.Distance),
				seq:    seq,
				object: object,
				via:    c.Factory,
				path:   path,
			})
		}
		return nil
	}

	if err := expand(adaptee, adapteeType, Weight{}, nil); err != nil {
		return Result{}, err
	}

	explored := 0
	for !queue.Empty() {
		value, _ := queue.Dequeue()
		next := value.(*candidate)

		if r.opts.MaxExplored > 0 && explored >= r.opts.MaxExplored {
			return Result{Explored: explored}, fmt.Errorf("%w (%d) adapting %s to %s",
				ErrExplorationLimit, r.opts.MaxExplored, adapteeType, to)
		}
		explored++

		r.logger.Debug("trying adapter factory",
			"factory", next.via.String(), "id", next.via.ID(), "weight", next.weight.String())

		adapter, err := next.via.Convert(next.object)
		if err != nil {
			return Result{Explored: explored}, fmt.Errorf("adapter factory %s: %w", next.via, err)
		}
		if adapter == nil {
			continue
		}

		declared, err := next.via.To()
		if err != nil {
			return Result{Explored: explored}, err
		}

		// Success is judged by the factory's declared target, not by the
		// produced value's own type
		chain := extend(next.path, next.via)
		if protocol.Satisfies(declared, to) {
			r.logger.Debug("adaptation chain found",
				"from", adapteeType.Name(), "to", to.Name(), "steps", len(chain), "explored", explored)
			return Result{
				Adapter:  adapter,
				Chain:    chain,
				Weight:   next.weight,
				Explored: explored,
			}, nil
		}

		// Trust the factory's declaration when the produced value's own type
		// does not carry the declared protocol
		producedType := r.types.TypeOf(adapter)
		if !protocol.Satisfies(producedType, declared) {
			producedType = declared
		}
		if err := expand(adapter, producedType, next.weight, chain); err != nil {
			return Result{Explored: explored}, err
		}
	}

	r.logger.Debug("no adaptation chain",
		"from", adapteeType.Name(), "to", to.Name(), "explored", explored)
	return Result{Explored: explored}, nil
}

// Plan finds the lightest chain of factories from type from to protocol to
// without invoking any converter, assuming every factory accepts its
// adaptee. The boolean is false when no chain exists; an empty chain means
// from already satisfies to.
func (r *Resolver) Plan(from, to *protocol.Type) ([]*factory.Factory, bool, error) {
	if from == nil || to == nil {
		return nil, false, fmt.Errorf("plan endpoints cannot be nil")
	}
	if protocol.Satisfies(from, to) {
		return []*factory.Factory{}, true, nil
	}

	queue := priorityqueue.NewWith(compareCandidates)
	var seq uint64

	expand := func(t *protocol.Type, base Weight, path []*factory.Factory) error {
		candidates, err := r.sources.CandidatesFor(t)
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if inPath(path, c.Factory) {
				continue
			}
			seq++
			queue.Enqueue(&candidate{
				weight: base.Add(c.Distance),
				seq:    seq,
				via:    c.Factory,
				path:   path,
			})
		}
		return nil
	}

	if err := expand(from, Weight{}, nil); err != nil {
		return nil, false, err
	}

	explored := 0
	for !queue.Empty() {
		value, _ := queue.Dequeue()
		next := value.(*candidate)

		if r.opts.MaxExplored > 0 && explored >= r.opts.MaxExplored {
			return nil, false, fmt.Errorf("%w (%d) planning %s to %s",
				ErrExplorationLimit, r.opts.MaxExplored, from, to)
		}
		explored++

		declared, err := next.via.To()
		if err != nil {
			return nil, false, err
		}
		chain := extend(next.path, next.via)
		if protocol.Satisfies(declared, to) {
			return chain, true, nil
		}
		if err := expand(declared, next.weight, chain); err != nil {
			return nil, false, err
		}
	}

	return nil, false, nil
}
