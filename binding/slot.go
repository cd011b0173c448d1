package binding

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/effectus/adaptation"
	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/protocol"
)

// ErrNilValue is wrapped by ValidationError when a slot refuses nil
var ErrNilValue = errors.New("nil value not allowed")

// Environment supplies type lookups and adaptation to slots.
// *adaptation.Manager implements it.
type Environment interface {
	adaptation.Resolver
	TypeOf(v any) *protocol.Type
}

// ValidationError reports a rejected assignment
type ValidationError struct {
	Slot     string
	Value    any
	Protocol *protocol.Type
	Policy   Policy
	Err      error
}

// Error implements error
func (e *ValidationError) Error() string {
	return fmt.Sprintf("slot %s (%s %s): rejected %v: %v",
		e.Slot, e.Policy, e.Protocol.Name(), e.Value, e.Err)
}

// Unwrap returns the underlying cause
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SlotOption configures a slot
type SlotOption func(*Slot)

// WithPolicy sets the adaptation policy; the default is Strict
func WithPolicy(p Policy) SlotOption {
	return func(s *Slot) {
		s.policy = p
	}
}

// AllowNil lets the slot hold nil
func AllowNil() SlotOption {
	return func(s *Slot) {
		s.allowNil = true
	}
}

// WithDefault sets the factory whose result is stored when a best-effort
// adaptation finds no conversion
func WithDefault(fn func() (any, error)) SlotOption {
	return func(s *Slot) {
		s.fallback = fn
	}
}

// WithLogger sets the slot logger
func WithLogger(logger *slog.Logger) SlotOption {
	return func(s *Slot) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Slot holds a single value constrained to a protocol
type Slot struct {
	name     string
	protocol *protocol.Type
	env      Environment

	policy   Policy
	allowNil bool
	fallback func() (any, error)
	logger   *slog.Logger

	value any
	mu    sync.RWMutex
}

// NewSlot creates an empty slot
func NewSlot(name string, proto *protocol.Type, env Environment, opts ...SlotOption) *Slot {
	s := &Slot{
		name:     name,
		protocol: proto,
		env:      env,
		logger:   slog.Default().With("component", "adaptation.binding"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the slot name
func (s *Slot) Name() string {
	return s.name
}

// Protocol returns the protocol values must satisfy
func (s *Slot) Protocol() *protocol.Type {
	return s.protocol
}

// Policy returns the adaptation policy
func (s *Slot) Policy() Policy {
	return s.policy
}

// Validate returns the value the slot would store for v. Converter errors
// are returned as they are; a rejected value yields a *ValidationError.
func (s *Slot) Validate(v any) (any, error) {
	if factory.IsNil(v) {
		if s.allowNil {
			return nil, nil
		}
		return nil, s.reject(v, ErrNilValue)
	}

	if s.policy == Strict {
		if protocol.Satisfies(s.env.TypeOf(v), s.protocol) {
			return v, nil
		}
		return nil, s.reject(v, fmt.Errorf("%s does not satisfy %s", s.env.TypeOf(v).Name(), s.protocol.Name()))
	}

	adapter, err := s.env.Resolve(v, s.protocol)
	if err != nil {
		return nil, err
	}
	if adapter != nil {
		return adapter, nil
	}

	if s.policy == RequiredAdapt {
		return nil, s.reject(v, adaptation.ErrNoAdaptation)
	}

	s.logger.Debug("no adaptation for slot value, using default",
		"slot", s.name, "protocol", s.protocol.Name())
	if s.fallback == nil {
		return nil, nil
	}
	return s.fallback()
}

// Set validates v and stores the result
func (s *Slot) Set(v any) error {
	value, err := s.Validate(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	return nil
}

// Get returns the stored value
func (s *Slot) Get() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Slot) reject(v any, err error) *ValidationError {
	return &ValidationError{
		Slot:     s.name,
		Value:    v,
		Protocol: s.protocol,
		Policy:   s.policy,
		Err:      err,
	}
}
