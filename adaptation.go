// Package adaptation converts values between protocols at run time. A
// Manager couples a protocol catalog, a registry of adapter factories and a
// resolver that searches the registry for conversion chains.
package adaptation

import (
	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/protocol"
)

// Version is the library version checked by manifest requirements
const Version = "1.0.0"

// Resolver finds an adapter for a value. A nil adapter with a nil error
// means no conversion exists.
type Resolver interface {
	Resolve(adaptee any, to *protocol.Type) (any, error)
}

// Registrar accepts adapter factories
type Registrar interface {
	// RegisterFactory registers a conversion between two declared protocols
	RegisterFactory(convert factory.ConvertFunc, from, to *protocol.Type) (*factory.Factory, error)

	// RegisterOffer registers a conversion by name; the protocols and the
	// converter are looked up on first use
	RegisterOffer(from, to, converter string) (*factory.Factory, error)

	// RegisterProvides declares that every provider provides proto
	RegisterProvides(provider, proto *protocol.Type) (*factory.Factory, error)
}
