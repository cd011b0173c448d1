package protocol

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// ObjectName is the name of the root of every catalog
const ObjectName = "object"

// Catalog manages declared types and the mapping from Go types to them
type Catalog struct {
	root *Type

	// types maps fully qualified names to types
	types map[string]*Type

	// byGo maps bound Go types to their classes
	byGo map[reflect.Type]*Type

	// mutex for thread safety
	mu sync.RWMutex
}

// NewCatalog creates a catalog holding only the root type
func NewCatalog() *Catalog {
	root := &Type{name: ObjectName, kind: KindClass}
	root.mro = []*Type{root}

	return &Catalog{
		root:  root,
		types: map[string]*Type{ObjectName: root},
		byGo:  make(map[reflect.Type]*Type),
	}
}

// Object returns the root type every other type derives from
func (c *Catalog) Object() *Type {
	return c.root
}

// DeclareOption configures a type declaration
type DeclareOption func(*declaration)

type declaration struct {
	bases    []*Type
	provides []*Type
	goType   reflect.Type
}

// Bases sets the direct bases of the declared type, in precedence order
func Bases(types ...*Type) DeclareOption {
	return func(d *declaration) {
		d.bases = append(d.bases, types...)
	}
}

// Provides declares the interfaces the type implements directly
func Provides(ifaces ...*Type) DeclareOption {
	return func(d *declaration) {
		d.provides = append(d.provides, ifaces...)
	}
}

// GoType binds the declared type to a Go type. For classes, values of that Go
// type report the class from TypeOf. For interfaces, the Go type must be an
// interface and bound classes implementing it satisfy the protocol.
func GoType(rt reflect.Type) DeclareOption {
	return func(d *declaration) {
		d.goType = rt
	}
}

// GoTypeOf is GoType for a static type parameter
func GoTypeOf[T any]() DeclareOption {
	return GoType(reflect.TypeFor[T]())
}

// DeclareClass declares a concrete class
func (c *Catalog) DeclareClass(name string, opts ...DeclareOption) (*Type, error) {
	return c.declare(name, KindClass, opts)
}

// DeclareInterface declares a capability contract
func (c *Catalog) DeclareInterface(name string, opts ...DeclareOption) (*Type, error) {
	return c.declare(name, KindInterface, opts)
}

// MustDeclareClass is DeclareClass that panics on error; meant for package
// initialization
func (c *Catalog) MustDeclareClass(name string, opts ...DeclareOption) *Type {
	t, err := c.DeclareClass(name, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustDeclareInterface is DeclareInterface that panics on error
func (c *Catalog) MustDeclareInterface(name string, opts ...DeclareOption) *Type {
	t, err := c.DeclareInterface(name, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Declare declares a type of the given kind
func (c *Catalog) Declare(name string, kind Kind, opts ...DeclareOption) (*Type, error) {
	return c.declare(name, kind, opts)
}

func (c *Catalog) declare(name string, kind Kind, opts []DeclareOption) (*Type, error) {
	d := &declaration{}
	for _, opt := range opts {
		opt(d)
	}

	t, err := c.build(name, kind, d)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.insertLocked(t); err != nil {
		return nil, err
	}
	return t, nil
}

// build constructs and linearizes a type without adding it to the catalog
func (c *Catalog) build(name string, kind Kind, d *declaration) (*Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("type name cannot be empty")
	}

	if err := c.checkDeclaration(name, kind, d); err != nil {
		return nil, err
	}

	bases := d.bases
	if len(bases) == 0 {
		bases = []*Type{c.root}
	}

	t := &Type{
		name:     name,
		kind:     kind,
		bases:    bases,
		provides: append([]*Type(nil), d.provides...),
		goType:   d.goType,
	}

	mro, err := linearize(t, bases)
	if err != nil {
		return nil, err
	}
	t.mro = mro
	return t, nil
}

// checkFreeLocked reports whether t can be added. Callers hold c.mu.
func (c *Catalog) checkFreeLocked(t *Type) error {
	if _, exists := c.types[t.name]; exists {
		return fmt.Errorf("type %s already declared", t.name)
	}
	if t.kind == KindClass && t.goType != nil {
		if existing, bound := c.byGo[t.goType]; bound {
			return fmt.Errorf("go type %s already bound to %s", t.goType, existing.name)
		}
	}
	return nil
}

// insertLocked adds t. Callers hold c.mu.
func (c *Catalog) insertLocked(t *Type) error {
	if err := c.checkFreeLocked(t); err != nil {
		return err
	}
	if t.kind == KindClass && t.goType != nil {
		c.byGo[t.goType] = t
	}
	c.types[t.name] = t
	return nil
}

func (c *Catalog) checkDeclaration(name string, kind Kind, d *declaration) error {
	for _, base := range d.bases {
		if base == nil {
			return fmt.Errorf("type %s: nil base", name)
		}
		if kind == KindClass && base.kind != KindClass {
			return fmt.Errorf("class %s cannot derive from interface %s; use Provides", name, base.name)
		}
		if kind == KindInterface && base.kind != KindInterface && base != c.root {
			return fmt.Errorf("interface %s cannot derive from class %s", name, base.name)
		}
	}

	for _, iface := range d.provides {
		if iface == nil {
			return fmt.Errorf("type %s: nil provided interface", name)
		}
		if iface.kind != KindInterface {
			return fmt.Errorf("type %s cannot provide class %s", name, iface.name)
		}
	}

	if d.goType != nil && kind == KindInterface && d.goType.Kind() != reflect.Interface {
		return fmt.Errorf("interface %s must be backed by a Go interface, got %s", name, d.goType)
	}

	return nil
}

// Lookup retrieves a type by name
func (c *Catalog) Lookup(name string) (*Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, found := c.types[strings.TrimSpace(name)]
	return t, found
}

// MustLookup retrieves a type by name or panics
func (c *Catalog) MustLookup(name string) *Type {
	t, ok := c.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("protocol: unknown type %s", name))
	}
	return t
}

// Resolve retrieves a type by name, returning an error for unknown names
func (c *Catalog) Resolve(name string) (*Type, error) {
	t, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %s", name)
	}
	return t, nil
}

// Types returns all declared types sorted by name
func (c *Catalog) Types() []*Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Type, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].name < out[j].name
	})
	return out
}

// TypeOf returns the type of a value. Values implementing Typed report their
// own type; values of bound Go types map to their class; any other Go type is
// declared on first sight as a class deriving from the root. TypeOf(nil)
// returns nil.
func (c *Catalog) TypeOf(v any) *Type {
	if v == nil {
		return nil
	}
	if typed, ok := v.(Typed); ok {
		if t := typed.ProtocolType(); t != nil {
			return t
		}
	}

	rt := reflect.TypeOf(v)

	c.mu.RLock()
	t, found := c.byGo[rt]
	c.mu.RUnlock()
	if found {
		return t
	}

	return c.bindImplicit(rt)
}

// bindImplicit declares a class for an unbound Go type
func (c *Catalog) bindImplicit(rt reflect.Type) *Type {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, found := c.byGo[rt]; found {
		return t
	}

	name := implicitName(rt)
	for i := 2; ; i++ {
		if _, taken := c.types[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s#%d", implicitName(rt), i)
	}

	t := &Type{
		name:   name,
		kind:   KindClass,
		bases:  []*Type{c.root},
		goType: rt,
	}
	t.mro = []*Type{t, c.root}

	c.types[name] = t
	c.byGo[rt] = t
	return t
}

func implicitName(rt reflect.Type) string {
	base := rt
	prefix := ""
	for base.Kind() == reflect.Pointer {
		prefix += "*"
		base = base.Elem()
	}
	if base.Name() != "" && base.PkgPath() != "" {
		return "go:" + prefix + base.PkgPath() + "." + base.Name()
	}
	return "go:" + rt.String()
}
