package resolver

import (
	"fmt"

	"github.com/effectus/adaptation/factory"
)

// Weight orders adaptation chains. Steps counts conversions; Specialization
// sums the specialization distances at which each step was taken. Weights
// compare lexicographically, so no amount of specialization noise outweighs
// an extra conversion step.
type Weight struct {
	Steps          int
	Specialization int
}

// Add returns the weight of taking one more step at the given distance
func (w Weight) Add(distance int) Weight {
	return Weight{
		Steps:          w.Steps + 1,
		Specialization: w.Specialization + distance,
	}
}

// Compare returns -1, 0 or 1 as w is lighter than, equal to or heavier than o
func (w Weight) Compare(o Weight) int {
	switch {
	case w.Steps < o.Steps:
		return -1
	case w.Steps > o.Steps:
		return 1
	case w.Specialization < o.Specialization:
		return -1
	case w.Specialization > o.Specialization:
		return 1
	default:
		return 0
	}
}

// String implements fmt.Stringer
func (w Weight) String() string {
	return fmt.Sprintf("(%d, %d)", w.Steps, w.Specialization)
}

// candidate is one frontier entry: apply via to object, having already
// followed path to produce object
type candidate struct {
	weight Weight
	seq    uint64
	object any
	via    *factory.Factory
	path   []*factory.Factory
}

// compareCandidates orders the frontier by weight, then by insertion so
// equal weights are tried in registration order
func compareCandidates(a, b interface{}) int {
	ca := a.(*candidate)
	cb := b.(*candidate)
	if c := ca.weight.Compare(cb.weight); c != 0 {
		return c
	}
	switch {
	case ca.seq < cb.seq:
		return -1
	case ca.seq > cb.seq:
		return 1
	default:
		return 0
	}
}

func inPath(path []*factory.Factory, f *factory.Factory) bool {
	for _, used := range path {
		if used == f {
			return true
		}
	}
	return false
}

func extend(path []*factory.Factory, f *factory.Factory) []*factory.Factory {
	out := make([]*factory.Factory, len(path), len(path)+1)
	copy(out, path)
	return append(out, f)
}
