package protocol

// Satisfies reports whether instances of t may be used where protocol p is
// expected. A type satisfies itself, every type in its linearized ancestry,
// every interface (and interface ancestor) declared by a type in that
// ancestry, and any Go-backed interface its bound Go type implements.
func Satisfies(t, p *Type) bool {
	if t == nil || p == nil {
		return false
	}
	if t == p {
		return true
	}

	for _, ancestor := range t.mro {
		if ancestor == p {
			return true
		}
		for _, iface := range ancestor.provides {
			if iface.IsSubtypeOf(p) {
				return true
			}
		}
	}

	return implementsGo(t, p)
}

// implementsGo checks structural satisfaction of a Go-backed interface
func implementsGo(t, p *Type) bool {
	if p.kind != KindInterface || p.goType == nil || t.goType == nil {
		return false
	}
	return t.goType.Implements(p.goType)
}

// SpecializationDistance returns how many ancestors above t still satisfy p,
// walking the linearized ancestry and stopping at the first that does not.
// The second result is false when t does not satisfy p at all.
//
// A type that introduces p itself is at distance 0; a type that inherits the
// capability from a distant ancestor is further away, which makes it a less
// specific conversion source.
func SpecializationDistance(t, p *Type) (int, bool) {
	if !Satisfies(t, p) {
		return 0, false
	}

	distance := 0
	for _, ancestor := range t.mro[1:] {
		if !Satisfies(ancestor, p) {
			break
		}
		distance++
	}

	return distance, true
}

// MoreSpecific reports whether a is strictly more specific than b, i.e. a
// satisfies b but b does not satisfy a.
func MoreSpecific(a, b *Type) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	return Satisfies(a, b) && !Satisfies(b, a)
}
