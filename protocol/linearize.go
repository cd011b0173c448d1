package protocol

import (
	"fmt"
	"strings"
)

// linearize computes the C3 linearization of a type with the given bases.
// The result starts with the type itself.
func linearize(t *Type, bases []*Type) ([]*Type, error) {
	if len(bases) == 0 {
		return []*Type{t}, nil
	}

	// Merge the linearizations of every base plus the base list itself
	sequences := make([][]*Type, 0, len(bases)+1)
	for _, base := range bases {
		sequences = append(sequences, append([]*Type(nil), base.mro...))
	}
	sequences = append(sequences, append([]*Type(nil), bases...))

	result := []*Type{t}
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return result, nil
		}

		head := pickHead(sequences)
		if head == nil {
			return nil, fmt.Errorf("cannot create a consistent linearization for %s (bases %s)",
				t.name, typeNames(bases))
		}

		result = append(result, head)
		for i, seq := range sequences {
			if seq[0] == head {
				sequences[i] = seq[1:]
			}
		}
	}
}

// pickHead returns the first sequence head that is not in the tail of any
// other sequence
func pickHead(sequences [][]*Type) *Type {
	for _, seq := range sequences {
		candidate := seq[0]
		if !inAnyTail(candidate, sequences) {
			return candidate
		}
	}
	return nil
}

func inAnyTail(t *Type, sequences [][]*Type) bool {
	for _, seq := range sequences {
		for _, other := range seq[1:] {
			if other == t {
				return true
			}
		}
	}
	return false
}

func dropEmpty(sequences [][]*Type) [][]*Type {
	out := sequences[:0]
	for _, seq := range sequences {
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}

func typeNames(types []*Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	return "[" + strings.Join(names, ", ") + "]"
}
