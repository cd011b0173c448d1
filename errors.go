package adaptation

import (
	"errors"
	"fmt"

	"github.com/effectus/adaptation/protocol"
)

// ErrNoAdaptation is wrapped by AdaptationError
var ErrNoAdaptation = errors.New("no adaptation chain")

// AdaptationError reports that a value could not be adapted to a protocol
type AdaptationError struct {
	Adaptee any
	Type    *protocol.Type
	To      *protocol.Type
}

// Error implements error
func (e *AdaptationError) Error() string {
	return fmt.Sprintf("could not adapt %v (%s) to %s", e.Adaptee, e.Type.Name(), e.To.Name())
}

// Unwrap returns ErrNoAdaptation
func (e *AdaptationError) Unwrap() error {
	return ErrNoAdaptation
}

// IsAdaptationError reports whether err is or wraps an AdaptationError
func IsAdaptationError(err error) bool {
	var target *AdaptationError
	return errors.As(err, &target)
}
