// Package testutils holds protocol hierarchies and converters shared by the
// package tests.
package testutils

import (
	"fmt"

	"github.com/effectus/adaptation/protocol"
)

// Object is a test value that reports its own protocol type
type Object struct {
	Type    *protocol.Type
	Adaptee any
	Mode    string
	Marker  string
	Allow   bool
}

// ProtocolType implements protocol.Typed
func (o *Object) ProtocolType() *protocol.Type {
	return o.Type
}

// String implements fmt.Stringer
func (o *Object) String() string {
	if o.Marker != "" {
		return fmt.Sprintf("%s(%s)", o.Type.Name(), o.Marker)
	}
	return o.Type.Name()
}

// New returns an instance of t
func New(t *protocol.Type) *Object {
	return &Object{Type: t}
}

// Wrap returns a converter producing an instance of to that holds the
// adaptee and carries marker, so tests can tell which factory ran
func Wrap(to *protocol.Type, marker string) func(any) (any, error) {
	return func(adaptee any) (any, error) {
		return &Object{Type: to, Adaptee: adaptee, Marker: marker}, nil
	}
}

// Unwrap follows Adaptee links depth times
func Unwrap(v any, depth int) any {
	for i := 0; i < depth; i++ {
		o, ok := v.(*Object)
		if !ok {
			return nil
		}
		v = o.Adaptee
	}
	return v
}

// Flyer is the Go interface behind the Flyable protocol
type Flyer interface {
	Fly() string
}

// Duck is a Go type bound to a catalog class
type Duck struct {
	Name string
}

// Plane is a Go type bound to a catalog class
type Plane struct {
	Model string
}

// Wings adapts anything that flies
type Wings struct {
	Of any
}

// Fly implements Flyer
func (w *Wings) Fly() string {
	return fmt.Sprintf("%v flies", w.Of)
}

// Fixtures is a catalog populated with the hierarchies used across tests
type Fixtures struct {
	Catalog *protocol.Catalog

	// plugs
	UKStandard, EUStandard, JapanStandard, IraqStandard *protocol.Type
	UKPlug, EUPlug, JapanPlug, IraqPlug, TravelPlug     *protocol.Type

	// editors
	FileType, Editor, TextEditor                *protocol.Type
	IEditor, IScriptable, IUndoable, IPrintable *protocol.Type

	// primates
	IPrimate, IHuman, IChild, IIntermediate, ITarget, Source *protocol.Type

	// generic chains
	IStart, IGeneric, ISpecific, IEnd, Start *protocol.Type

	// flight, backed by Go types
	Flyable, Swimmable, DuckClass, PlaneClass *protocol.Type
}

// NewFixtures declares every fixture hierarchy in a fresh catalog
func NewFixtures() *Fixtures {
	c := protocol.NewCatalog()
	f := &Fixtures{Catalog: c}

	f.UKStandard = c.MustDeclareInterface("plugs.UKStandard")
	f.EUStandard = c.MustDeclareInterface("plugs.EUStandard")
	f.JapanStandard = c.MustDeclareInterface("plugs.JapanStandard")
	f.IraqStandard = c.MustDeclareInterface("plugs.IraqStandard")
	f.UKPlug = c.MustDeclareClass("plugs.UKPlug", protocol.Provides(f.UKStandard))
	f.EUPlug = c.MustDeclareClass("plugs.EUPlug", protocol.Provides(f.EUStandard))
	f.JapanPlug = c.MustDeclareClass("plugs.JapanPlug", protocol.Provides(f.JapanStandard))
	f.IraqPlug = c.MustDeclareClass("plugs.IraqPlug", protocol.Provides(f.IraqStandard))
	f.TravelPlug = c.MustDeclareClass("plugs.TravelPlug")

	f.FileType = c.MustDeclareClass("editors.FileType")
	f.Editor = c.MustDeclareClass("editors.Editor")
	f.TextEditor = c.MustDeclareClass("editors.TextEditor", protocol.Bases(f.Editor))
	f.IEditor = c.MustDeclareInterface("editors.IEditor")
	f.IScriptable = c.MustDeclareInterface("editors.IScriptable")
	f.IUndoable = c.MustDeclareInterface("editors.IUndoable")
	f.IPrintable = c.MustDeclareInterface("editors.IPrintable")

	f.IPrimate = c.MustDeclareInterface("primates.IPrimate")
	f.IHuman = c.MustDeclareInterface("primates.IHuman", protocol.Bases(f.IPrimate))
	f.IChild = c.MustDeclareInterface("primates.IChild", protocol.Bases(f.IHuman))
	f.IIntermediate = c.MustDeclareInterface("primates.IIntermediate")
	f.ITarget = c.MustDeclareInterface("primates.ITarget")
	f.Source = c.MustDeclareClass("primates.Source", protocol.Provides(f.IChild))

	f.IStart = c.MustDeclareInterface("generic.IStart")
	f.IGeneric = c.MustDeclareInterface("generic.IGeneric")
	f.ISpecific = c.MustDeclareInterface("generic.ISpecific", protocol.Bases(f.IGeneric))
	f.IEnd = c.MustDeclareInterface("generic.IEnd")
	f.Start = c.MustDeclareClass("generic.Start", protocol.Provides(f.IStart))

	f.Flyable = c.MustDeclareInterface("flight.Flyable", protocol.GoTypeOf[Flyer]())
	f.Swimmable = c.MustDeclareInterface("flight.Swimmable")
	f.DuckClass = c.MustDeclareClass("flight.Duck", protocol.GoTypeOf[*Duck]())
	f.PlaneClass = c.MustDeclareClass("flight.Plane", protocol.GoTypeOf[*Plane]())

	return f
}

// Marker returns the marker of an *Object, or "" for anything else
func Marker(v any) string {
	if o, ok := v.(*Object); ok {
		return o.Marker
	}
	return ""
}
