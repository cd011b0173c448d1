package manifest

import (
	"context"
	"fmt"

	"github.com/effectus/adaptation/factory"
)

// Extensions applies manifests from several loaders in order
type Extensions struct {
	loaders []Loader
}

// NewExtensions creates an empty loader set
func NewExtensions() *Extensions {
	return &Extensions{
		loaders: make([]Loader, 0),
	}
}

// AddLoader appends a loader
func (e *Extensions) AddLoader(loader Loader) {
	e.loaders = append(e.loaders, loader)
}

// Loaders returns the registered loaders
func (e *Extensions) Loaders() []Loader {
	return e.loaders
}

// LoadAll runs every loader against target, stopping at the first failure
func (e *Extensions) LoadAll(ctx context.Context, target Target) error {
	for _, loader := range e.loaders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := loader.Load(ctx, target); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", loader.Name(), err)
		}
	}
	return nil
}

// Loader contributes declarations to a target
type Loader interface {
	Name() string
	Load(ctx context.Context, target Target) error
}

// === Static loaders ===

// StaticLoader registers converters and declarations from code
type StaticLoader struct {
	name       string
	converters []namedConverter
	manifest   Manifest
}

type namedConverter struct {
	name string
	fn   factory.ConvertFunc
}

// NewStaticLoader creates an empty static loader
func NewStaticLoader(name string) *StaticLoader {
	return &StaticLoader{name: name}
}

// AddConverter registers a named converter with the target's table
func (s *StaticLoader) AddConverter(name string, fn factory.ConvertFunc) *StaticLoader {
	s.converters = append(s.converters, namedConverter{name: name, fn: fn})
	return s
}

// AddType declares a type
func (s *StaticLoader) AddType(decl TypeDecl) *StaticLoader {
	s.manifest.Types = append(s.manifest.Types, decl)
	return s
}

// AddOffer registers an offer
func (s *StaticLoader) AddOffer(offer Offer) *StaticLoader {
	s.manifest.Offers = append(s.manifest.Offers, offer)
	return s
}

// AddProvides registers a provides declaration
func (s *StaticLoader) AddProvides(provider, proto string) *StaticLoader {
	s.manifest.Provides = append(s.manifest.Provides, ProvidesDecl{Provider: provider, Protocol: proto})
	return s
}

// Name implements Loader
func (s *StaticLoader) Name() string {
	return s.name
}

// Load implements Loader
func (s *StaticLoader) Load(ctx context.Context, target Target) error {
	for _, c := range s.converters {
		if err := target.Converters().Register(c.name, c.fn); err != nil {
			return err
		}
	}
	if err := s.manifest.Compile(); err != nil {
		return err
	}
	_, err := s.manifest.Apply(target)
	return err
}

// === File loaders ===

// FileLoader applies one manifest file
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for a manifest file
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Name implements Loader
func (f *FileLoader) Name() string {
	return f.path
}

// Load implements Loader
func (f *FileLoader) Load(ctx context.Context, target Target) error {
	m, err := Load(f.path)
	if err != nil {
		return err
	}
	_, err = m.Apply(target)
	return err
}

// DirLoader applies every manifest file in a directory, in name order
type DirLoader struct {
	dir string
}

// NewDirLoader creates a loader for a manifest directory
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

// Name implements Loader
func (d *DirLoader) Name() string {
	return d.dir
}

// Load implements Loader
func (d *DirLoader) Load(ctx context.Context, target Target) error {
	manifests, err := LoadDir(d.dir)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.Apply(target); err != nil {
			return fmt.Errorf("%s: %w", m.Source, err)
		}
	}
	return nil
}
