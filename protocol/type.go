// Package protocol provides the type lattice used by adaptation: classes,
// interfaces, their linearized ancestry, and the satisfaction queries the
// resolver is built on.
package protocol

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind distinguishes concrete classes from declared capability contracts
type Kind int

const (
	// KindClass is a concrete, nominal type
	KindClass Kind = iota

	// KindInterface is a declared capability contract
	KindInterface
)

// String returns the manifest spelling of the kind
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the manifest spelling of a kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "class":
		return KindClass, nil
	case "interface":
		return KindInterface, nil
	default:
		return KindClass, fmt.Errorf("unknown type kind %q", s)
	}
}

// Type is a node in the protocol lattice. Types are immutable once declared.
type Type struct {
	name     string
	kind     Kind
	bases    []*Type
	provides []*Type
	mro      []*Type

	// goType is the Go type bound to a class, or the Go interface backing an
	// interface protocol
	goType reflect.Type
}

// Name returns the fully qualified type name
func (t *Type) Name() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

// Kind returns whether the type is a class or an interface
func (t *Type) Kind() Kind {
	return t.kind
}

// IsInterface reports whether the type is a declared interface
func (t *Type) IsInterface() bool {
	return t != nil && t.kind == KindInterface
}

// Bases returns the direct bases in declaration order
func (t *Type) Bases() []*Type {
	out := make([]*Type, len(t.bases))
	copy(out, t.bases)
	return out
}

// Provides returns the interfaces this type declares directly
func (t *Type) Provides() []*Type {
	out := make([]*Type, len(t.provides))
	copy(out, t.provides)
	return out
}

// MRO returns the linearized ancestry, starting with the type itself
func (t *Type) MRO() []*Type {
	out := make([]*Type, len(t.mro))
	copy(out, t.mro)
	return out
}

// GoType returns the Go type bound to this type, if any
func (t *Type) GoType() reflect.Type {
	return t.goType
}

// String implements fmt.Stringer
func (t *Type) String() string {
	return t.Name()
}

// IsSubtypeOf reports whether other appears in t's linearized ancestry
func (t *Type) IsSubtypeOf(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	for _, ancestor := range t.mro {
		if ancestor == other {
			return true
		}
	}
	return false
}

// Typed is implemented by values that report their own protocol type
type Typed interface {
	ProtocolType() *Type
}
