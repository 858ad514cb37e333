package address

import "strings"

// Equality is the result of a three-way address comparison
type Equality int

const (
	// Different addresses name distinct resources.
	Different Equality = iota
	// WeakEqual addresses share scheme security, user, host, port and
	// transport and only differ in other URI parameters.
	WeakEqual
	// Equal addresses are identical including parameters.
	Equal
)

// String returns the string representation of the comparison result
func (e Equality) String() string {
	switch e {
	case Different:
		return "different"
	case WeakEqual:
		return "weak-equal"
	case Equal:
		return "equal"
	default:
		return "unknown"
	}
}

// Compare returns how a relates to b. Two nil addresses are Equal and a
// single nil is Different. Addresses that match on user, host and port
// but disagree on scheme security or transport are Different.
func Compare(a, b *Address) Equality {
	if a == nil && b == nil {
		return Equal
	}
	if a == nil || b == nil {
		return Different
	}
	if a.canonical() == b.canonical() {
		return Equal
	}
	if !WeakEqualURI(a, b) {
		return Different
	}
	if a.Secure() != b.Secure() || a.Transport() != b.Transport() {
		return Different
	}
	return WeakEqual
}

// WeakEqualURI compares user, host and port only
func WeakEqualURI(a, b *Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.uri.User == b.uri.User &&
		strings.EqualFold(a.uri.Host, b.uri.Host) &&
		a.uri.Port == b.uri.Port
}

// Same reports whether two addresses identify the same member, meaning
// Compare is Equal or WeakEqual.
func Same(a, b *Address) bool {
	return Compare(a, b) != Different
}

// ServerConfigChanged compares saved and current identity/server pairs.
// A Different identity or server wins. An Equal server defers to the
// identity result, otherwise the change is weak.
func ServerConfigChanged(savedIdentity, identity, savedServer, server *Address) Equality {
	result := Compare(savedIdentity, identity)
	if result == Different {
		return Different
	}
	serverResult := Compare(savedServer, server)
	if serverResult == Different {
		return Different
	}
	if serverResult == Equal {
		return result
	}
	return WeakEqual
}
