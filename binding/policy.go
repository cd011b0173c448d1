// Package binding validates values assigned to protocol-typed slots,
// adapting them automatically when the slot's policy allows it.
package binding

import (
	"fmt"
	"strings"
)

// Policy selects how a slot treats values that do not satisfy its protocol
type Policy int

const (
	// Strict rejects values that do not already satisfy the protocol
	Strict Policy = iota
	// RequiredAdapt adapts values and rejects those with no conversion
	RequiredAdapt
	// BestEffortAdapt adapts values and stores the default when there is no
	// conversion
	BestEffortAdapt
)

// String implements fmt.Stringer
func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case RequiredAdapt:
		return "required"
	case BestEffortAdapt:
		return "best-effort"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses the names returned by String. "no", "yes" and "default"
// are accepted as aliases.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "no":
		return Strict, nil
	case "required", "yes":
		return RequiredAdapt, nil
	case "best-effort", "default":
		return BestEffortAdapt, nil
	default:
		return Strict, fmt.Errorf("unknown binding policy %q", s)
	}
}
