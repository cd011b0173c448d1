package adaptation

import (
	"fmt"
	"log/slog"

	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/protocol"
	"github.com/effectus/adaptation/registry"
	"github.com/effectus/adaptation/resolver"
)

// Manager owns a catalog, a registry and a resolver over them
type Manager struct {
	catalog    *protocol.Catalog
	registry   *registry.Registry
	resolver   *resolver.Resolver
	converters *factory.ConverterTable
	logger     *slog.Logger
}

type managerConfig struct {
	catalog     *protocol.Catalog
	registry    *registry.Registry
	converters  *factory.ConverterTable
	logger      *slog.Logger
	maxExplored int
}

// Option configures a Manager
type Option func(*managerConfig)

// WithCatalog uses an existing catalog
func WithCatalog(c *protocol.Catalog) Option {
	return func(cfg *managerConfig) {
		cfg.catalog = c
	}
}

// WithRegistry uses an existing registry
func WithRegistry(r *registry.Registry) Option {
	return func(cfg *managerConfig) {
		cfg.registry = r
	}
}

// WithConverters sets the table named offers are resolved against. The
// default is the process-wide table.
func WithConverters(t *factory.ConverterTable) Option {
	return func(cfg *managerConfig) {
		cfg.converters = t
	}
}

// WithLogger sets the logger shared by the registry and the resolver
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *managerConfig) {
		cfg.logger = logger
	}
}

// WithMaxExplored bounds each search; zero means unbounded
func WithMaxExplored(n int) Option {
	return func(cfg *managerConfig) {
		cfg.maxExplored = n
	}
}

// NewManager creates a manager. Without options it owns a fresh catalog and
// registry and resolves named converters through the process-wide table.
func NewManager(opts ...Option) *Manager {
	cfg := &managerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.catalog == nil {
		cfg.catalog = protocol.NewCatalog()
	}
	if cfg.registry == nil {
		cfg.registry = registry.New(registry.WithLogger(cfg.logger.With("component", "adaptation.registry")))
	}
	if cfg.converters == nil {
		cfg.converters = factory.DefaultConverters()
	}

	return &Manager{
		catalog:  cfg.catalog,
		registry: cfg.registry,
		resolver: resolver.New(cfg.catalog, cfg.registry, resolver.Options{
			MaxExplored: cfg.maxExplored,
			Logger:      cfg.logger.With("component", "adaptation.resolver"),
		}),
		converters: cfg.converters,
		logger:     cfg.logger.With("component", "adaptation.manager"),
	}
}

// Catalog returns the manager's protocol catalog
func (m *Manager) Catalog() *protocol.Catalog {
	return m.catalog
}

// Registry returns the manager's factory registry
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// Resolver returns the manager's resolver
func (m *Manager) Resolver() *resolver.Resolver {
	return m.resolver
}

// Converters returns the table named offers resolve against
func (m *Manager) Converters() *factory.ConverterTable {
	return m.converters
}

// AdaptOption configures a single Adapt call
type AdaptOption func(*adaptConfig)

type adaptConfig struct {
	fallback    any
	hasFallback bool
}

// WithDefault makes Adapt return v instead of an AdaptationError when no
// conversion exists. v may be nil.
func WithDefault(v any) AdaptOption {
	return func(cfg *adaptConfig) {
		cfg.fallback = v
		cfg.hasFallback = true
	}
}

// Adapt returns a value satisfying to for adaptee. Without WithDefault a
// miss is reported as an *AdaptationError.
func (m *Manager) Adapt(adaptee any, to *protocol.Type, opts ...AdaptOption) (any, error) {
	cfg := &adaptConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	adapter, err := m.resolver.Resolve(adaptee, to)
	if err != nil {
		return nil, err
	}
	if adapter != nil {
		return adapter, nil
	}
	if cfg.hasFallback {
		return cfg.fallback, nil
	}
	return nil, &AdaptationError{
		Adaptee: adaptee,
		Type:    m.catalog.TypeOf(adaptee),
		To:      to,
	}
}

// Resolve implements Resolver
func (m *Manager) Resolve(adaptee any, to *protocol.Type) (any, error) {
	return m.resolver.Resolve(adaptee, to)
}

// SupportsProtocol reports whether v satisfies p or can be adapted to it.
// Converters run as part of the check.
func (m *Manager) SupportsProtocol(v any, p *protocol.Type) (bool, error) {
	adapter, err := m.resolver.Resolve(v, p)
	if err != nil {
		return false, err
	}
	return adapter != nil, nil
}

// ProvidesProtocol reports whether type t satisfies p without adaptation
func (m *Manager) ProvidesProtocol(t, p *protocol.Type) bool {
	return protocol.Satisfies(t, p)
}

// Register adds a prepared factory
func (m *Manager) Register(f *factory.Factory) error {
	return m.registry.Register(f)
}

// RegisterFactory implements Registrar
func (m *Manager) RegisterFactory(convert factory.ConvertFunc, from, to *protocol.Type) (*factory.Factory, error) {
	return m.registry.RegisterFactory(convert, from, to)
}

// RegisterOffer implements Registrar. Unknown names are reported when the
// factory is first matched or by Validate.
func (m *Manager) RegisterOffer(from, to, converter string) (*factory.Factory, error) {
	if from == "" || to == "" || converter == "" {
		return nil, fmt.Errorf("offer %q -> %q via %q: names cannot be empty", from, to, converter)
	}
	f := factory.NewDeferred(from, to, converter, m.catalog, m.converters)
	if err := m.registry.Register(f); err != nil {
		return nil, err
	}
	return f, nil
}

// RegisterProvides implements Registrar
func (m *Manager) RegisterProvides(provider, proto *protocol.Type) (*factory.Factory, error) {
	return m.registry.RegisterProvides(provider, proto)
}

// Validate resolves every named offer and reports all configuration errors
func (m *Manager) Validate() error {
	if err := m.registry.Validate(); err != nil {
		m.logger.Warn("adapter registry has configuration errors", "error", err)
		return err
	}
	return nil
}

// TypeOf returns the catalog type of v
func (m *Manager) TypeOf(v any) *protocol.Type {
	return m.catalog.TypeOf(v)
}
