package manifest

import (
	"fmt"

	"github.com/effectus/adaptation"
	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/protocol"
)

// Target receives the declarations of a manifest. *adaptation.Manager
// implements it.
type Target interface {
	Catalog() *protocol.Catalog
	Converters() *factory.ConverterTable
	Register(f *factory.Factory) error
}

// IsEmpty reports whether the manifest declares nothing
func (m *Manifest) IsEmpty() bool {
	return m.Requires == "" && len(m.Types) == 0 && len(m.Offers) == 0 && len(m.Provides) == 0
}

// Apply checks the requires constraint, declares the manifest's types and
// registers its offers and provides declarations. Offers stay lazy: their
// protocols and converters are looked up when first matched, so converters
// may be registered after the manifest is applied.
func (m *Manifest) Apply(target Target) ([]*factory.Factory, error) {
	if err := m.CheckRequires(adaptation.Version); err != nil {
		return nil, err
	}

	catalog := target.Catalog()
	if err := declareTypes(catalog, m.Types); err != nil {
		return nil, err
	}

	factories := m.Factories(catalog, target.Converters())
	for _, f := range factories {
		if err := target.Register(f); err != nil {
			return nil, fmt.Errorf("registering %s: %w", f, err)
		}
	}
	return factories, nil
}

// Factories builds the manifest's offers and provides declarations as
// deferred factories without registering them
func (m *Manifest) Factories(types factory.TypeResolver, converters factory.ConverterResolver) []*factory.Factory {
	factories := make([]*factory.Factory, 0, len(m.Offers)+len(m.Provides))
	for i := range m.Offers {
		factories = append(factories, m.Offers[i].factory(types, converters))
	}
	for _, p := range m.Provides {
		factories = append(factories, factory.NewFromRefs(
			factory.DeferredType(factory.RoleFrom, p.Provider, types),
			factory.DeferredType(factory.RoleTo, p.Protocol, types),
			factory.Resolved[factory.ConvertFunc]("identity", factory.Identity),
		))
	}
	return factories
}

func (o *Offer) factory(types factory.TypeResolver, converters factory.ConverterResolver) *factory.Factory {
	convert := factory.DeferredConverter(o.Factory, converters)
	if guard := o.guard; guard != nil {
		inner := convert
		convert = factory.Deferred(o.Factory, func(string) (factory.ConvertFunc, error) {
			fn, err := inner.Get()
			if err != nil {
				return nil, err
			}
			return guard.Wrap(fn), nil
		})
	}

	return factory.NewFromRefs(
		factory.DeferredType(factory.RoleFrom, o.From, types),
		factory.DeferredType(factory.RoleTo, o.To, types),
		convert,
	)
}

// declareTypes declares decls as one batch; a declaration may name bases
// and interfaces declared later in the same manifest. Nothing is declared
// unless every declaration succeeds.
func declareTypes(catalog *protocol.Catalog, decls []TypeDecl) error {
	if len(decls) == 0 {
		return nil
	}

	batch := make([]protocol.Declaration, 0, len(decls))
	for _, decl := range decls {
		kind, err := decl.kind()
		if err != nil {
			return fmt.Errorf("declaring %s: %w", decl.Name, err)
		}
		batch = append(batch, protocol.Declaration{
			Name:     decl.Name,
			Kind:     kind,
			Bases:    decl.Bases,
			Provides: decl.Provides,
		})
	}

	if _, err := catalog.DeclareAll(batch); err != nil {
		return fmt.Errorf("declaring types: %w", err)
	}
	return nil
}
