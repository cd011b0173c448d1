// Package factory defines adapter factories: a source protocol, a target
// protocol and a one-argument conversion, any of which may be bound lazily
// from a symbolic name.
package factory

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"

	"github.com/effectus/adaptation/protocol"
	"github.com/google/uuid"
)

// ConvertFunc converts an adaptee into an adapter. A nil result means the
// factory declines this particular adaptee; that is not an error.
type ConvertFunc func(adaptee any) (any, error)

// TypeResolver resolves protocol names for deferred factories
type TypeResolver interface {
	Resolve(name string) (*protocol.Type, error)
}

// ConverterResolver resolves converter names for deferred factories
type ConverterResolver interface {
	Resolve(name string) (ConvertFunc, error)
}

// Factory is an immutable adapter factory record
type Factory struct {
	id      uuid.UUID
	from    *Ref[*protocol.Type]
	to      *Ref[*protocol.Type]
	convert *Ref[ConvertFunc]
}

// New creates a factory from concrete values
func New(convert ConvertFunc, from, to *protocol.Type) *Factory {
	return NewFromRefs(
		Resolved(from.Name(), from),
		Resolved(to.Name(), to),
		Resolved(funcName(convert), convert),
	)
}

// NewDeferred creates a factory whose protocols and converter are looked up
// by name on first use
func NewDeferred(fromName, toName, convertName string, types TypeResolver, converters ConverterResolver) *Factory {
	return NewFromRefs(
		DeferredType(RoleFrom, fromName, types),
		DeferredType(RoleTo, toName, types),
		DeferredConverter(convertName, converters),
	)
}

// NewFromRefs creates a factory from arbitrary references
func NewFromRefs(from, to *Ref[*protocol.Type], convert *Ref[ConvertFunc]) *Factory {
	return &Factory{
		id:      uuid.New(),
		from:    from,
		to:      to,
		convert: convert,
	}
}

// DeferredType returns a reference resolving a protocol name through types.
// Failures are reported as ConfigError for the given role.
func DeferredType(role, name string, types TypeResolver) *Ref[*protocol.Type] {
	return Deferred(name, func(name string) (*protocol.Type, error) {
		if types == nil {
			return nil, &ConfigError{Role: role, Name: name, Err: ErrUnknownSymbol}
		}
		t, err := types.Resolve(name)
		if err != nil {
			return nil, &ConfigError{Role: role, Name: name, Err: err}
		}
		if t == nil {
			return nil, &ConfigError{Role: role, Name: name, Err: ErrUnknownSymbol}
		}
		return t, nil
	})
}

// DeferredConverter returns a reference resolving a converter name through
// converters
func DeferredConverter(name string, converters ConverterResolver) *Ref[ConvertFunc] {
	return Deferred(name, func(name string) (ConvertFunc, error) {
		if converters == nil {
			return nil, &ConfigError{Role: RoleConvert, Name: name, Err: ErrUnknownSymbol}
		}
		fn, err := converters.Resolve(name)
		if err != nil {
			return nil, &ConfigError{Role: RoleConvert, Name: name, Err: err}
		}
		if fn == nil {
			return nil, &ConfigError{Role: RoleConvert, Name: name, Err: ErrUnknownSymbol}
		}
		return fn, nil
	})
}

// ID uniquely identifies this registration; duplicate registrations of the
// same conversion get distinct ids
func (f *Factory) ID() uuid.UUID {
	return f.id
}

// FromName returns the source protocol name without resolving it
func (f *Factory) FromName() string {
	return f.from.Name()
}

// ToName returns the target protocol name without resolving it
func (f *Factory) ToName() string {
	return f.to.Name()
}

// ConverterName returns the converter name without resolving it
func (f *Factory) ConverterName() string {
	return f.convert.Name()
}

// From returns the source protocol
func (f *Factory) From() (*protocol.Type, error) {
	return f.from.Get()
}

// To returns the target protocol
func (f *Factory) To() (*protocol.Type, error) {
	return f.to.Get()
}

// Matches reports whether instances of t may be used as the factory's source
// protocol, and if so at which specialization distance
func (f *Factory) Matches(t *protocol.Type) (int, bool, error) {
	from, err := f.from.Get()
	if err != nil {
		return 0, false, err
	}
	distance, ok := protocol.SpecializationDistance(t, from)
	return distance, ok, nil
}

// Convert invokes the converter. Declining converters, including ones that
// return a typed nil pointer, yield (nil, nil).
func (f *Factory) Convert(adaptee any) (any, error) {
	convert, err := f.convert.Get()
	if err != nil {
		return nil, err
	}
	if convert == nil {
		return nil, &ConfigError{Role: RoleConvert, Name: f.convert.Name(), Err: ErrUnknownSymbol}
	}

	adapter, err := convert(adaptee)
	if err != nil {
		return nil, err
	}
	if IsNil(adapter) {
		return nil, nil
	}
	return adapter, nil
}

// Resolve forces every deferred reference and reports all failures
func (f *Factory) Resolve() error {
	_, fromErr := f.from.Get()
	_, toErr := f.to.Get()
	_, convertErr := f.convert.Get()
	return errors.Join(fromErr, toErr, convertErr)
}

// String implements fmt.Stringer
func (f *Factory) String() string {
	return fmt.Sprintf("<Factory: '%s' -> '%s'>", f.FromName(), f.ToName())
}

// Identity is the converter used to declare that one protocol provides
// another: the adaptee is its own adapter
func Identity(adaptee any) (any, error) {
	return adaptee, nil
}

// Func lifts a typed conversion into a ConvertFunc. Adaptees that are not
// an S are declined.
func Func[S, A any](fn func(S) A) ConvertFunc {
	return func(adaptee any) (any, error) {
		source, ok := adaptee.(S)
		if !ok {
			return nil, nil
		}
		return fn(source), nil
	}
}

// FuncE is Func for conversions that can fail
func FuncE[S, A any](fn func(S) (A, error)) ConvertFunc {
	return func(adaptee any) (any, error) {
		source, ok := adaptee.(S)
		if !ok {
			return nil, nil
		}
		return fn(source)
	}
}

// IsNil reports whether v is nil or a nil pointer, map, slice, func, chan or
// interface held in a non-nil interface
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func funcName(fn ConvertFunc) string {
	if fn == nil {
		return ""
	}
	if rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); rf != nil {
		return rf.Name()
	}
	return ""
}
