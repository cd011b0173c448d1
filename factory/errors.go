package factory

import (
	"errors"
	"fmt"
)

// ErrUnknownSymbol is returned when a symbolic name has no registration
var ErrUnknownSymbol = errors.New("unknown symbol")

// Roles of the references held by a factory
const (
	RoleFrom    = "from protocol"
	RoleTo      = "to protocol"
	RoleConvert = "converter"
)

// ConfigError reports a deferred reference that could not be resolved. It
// is a configuration problem of the registrant, never retried.
type ConfigError struct {
	Role string
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("adapter factory %s %q: %v", e.Role, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a ConfigError
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
