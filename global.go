package adaptation

import (
	"sync"

	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/protocol"
)

var (
	globalMu sync.RWMutex
	global   = NewManager()
)

// Global returns the process-wide manager
func Global() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetGlobal replaces the process-wide manager and returns the previous one
func SetGlobal(m *Manager) *Manager {
	if m == nil {
		panic("adaptation: SetGlobal with nil manager")
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	previous := global
	global = m
	return previous
}

// ResetGlobal installs a fresh process-wide manager with an empty catalog
// and registry
func ResetGlobal() {
	SetGlobal(NewManager())
}

// Adapt adapts through the global manager
func Adapt(adaptee any, to *protocol.Type, opts ...AdaptOption) (any, error) {
	return Global().Adapt(adaptee, to, opts...)
}

// SupportsProtocol checks support through the global manager
func SupportsProtocol(v any, p *protocol.Type) (bool, error) {
	return Global().SupportsProtocol(v, p)
}

// ProvidesProtocol reports whether t satisfies p without adaptation
func ProvidesProtocol(t, p *protocol.Type) bool {
	return protocol.Satisfies(t, p)
}

// RegisterFactory registers with the global manager
func RegisterFactory(convert factory.ConvertFunc, from, to *protocol.Type) (*factory.Factory, error) {
	return Global().RegisterFactory(convert, from, to)
}

// RegisterOffer registers a named offer with the global manager
func RegisterOffer(from, to, converter string) (*factory.Factory, error) {
	return Global().RegisterOffer(from, to, converter)
}

// RegisterProvides registers a provides declaration with the global manager
func RegisterProvides(provider, proto *protocol.Type) (*factory.Factory, error) {
	return Global().RegisterProvides(provider, proto)
}
