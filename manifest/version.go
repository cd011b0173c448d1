package manifest

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ErrIncompatible is returned when a manifest's requires constraint rejects
// the running library version
var ErrIncompatible = errors.New("manifest requires a different library version")

func parseConstraint(raw string) (*semver.Constraints, error) {
	constraint, err := semver.NewConstraint(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid requires constraint %q: %w", raw, err)
	}
	return constraint, nil
}

// CheckRequires reports whether version satisfies the manifest's requires
// constraint. Manifests without one accept every version.
func (m *Manifest) CheckRequires(version string) error {
	if m.Requires == "" {
		return nil
	}

	constraint, err := parseConstraint(m.Requires)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid library version %q: %w", version, err)
	}

	if ok, reasons := constraint.Validate(v); !ok {
		return fmt.Errorf("%w: %s does not satisfy %q: %v",
			ErrIncompatible, version, m.Requires, errors.Join(reasons...))
	}
	return nil
}
