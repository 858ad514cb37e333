package address

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emiago/sipgo/sip"
)

// ErrInvalidAddress is returned when a string is not a valid SIP URI
var ErrInvalidAddress = errors.New("invalid SIP address")

// Address is an immutable, parsed SIP or SIPS URI
type Address struct {
	uri sip.Uri
	raw string
}

// Parse parses a SIP/SIPS URI. A display-name wrapped form
// ("Alice <sip:alice@example.com>") is accepted as well.
func Parse(s string) (*Address, error) {
	raw := strings.TrimSpace(s)
	if i := strings.IndexByte(raw, '<'); i >= 0 {
		j := strings.LastIndexByte(raw, '>')
		if j <= i {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		raw = raw[i+1 : j]
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "sip:") && !strings.HasPrefix(lower, "sips:") {
		return nil, fmt.Errorf("%w: %q: unsupported scheme", ErrInvalidAddress, s)
	}

	var uri sip.Uri
	if err := sip.ParseUri(raw, &uri); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	if uri.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidAddress, s)
	}
	if uri.Scheme == "" {
		uri.Scheme = strings.ToLower(raw[:strings.IndexByte(raw, ':')])
	}
	return &Address{uri: uri, raw: raw}, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(s string) *Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Scheme returns "sip" or "sips"
func (a *Address) Scheme() string {
	return strings.ToLower(a.uri.Scheme)
}

// User returns the user part
func (a *Address) User() string {
	return a.uri.User
}

// Host returns the host part
func (a *Address) Host() string {
	return a.uri.Host
}

// Port returns the explicit port, or 0
func (a *Address) Port() int {
	return a.uri.Port
}

// Secure reports whether the address uses the sips scheme
func (a *Address) Secure() bool {
	return a.Scheme() == "sips"
}

// Transport returns the lowercased transport parameter, or ""
func (a *Address) Transport() string {
	return strings.ToLower(a.Param("transport"))
}

// Param returns a URI parameter value
func (a *Address) Param(name string) string {
	if a.uri.UriParams == nil {
		return ""
	}
	v, _ := a.uri.UriParams.Get(name)
	return v
}

// Params returns the URI parameters as a map with lowercased keys
func (a *Address) Params() map[string]string {
	out := make(map[string]string)
	if a.uri.UriParams == nil {
		return out
	}
	for _, k := range a.uri.UriParams.Keys() {
		v, _ := a.uri.UriParams.Get(k)
		out[strings.ToLower(k)] = v
	}
	return out
}

// URI returns a copy of the underlying sipgo URI
func (a *Address) URI() sip.Uri {
	return *a.uri.Clone()
}

// String returns the URI as it was given
func (a *Address) String() string {
	return a.raw
}

// AsStringUriOnly returns scheme, user, host and port without parameters
func (a *Address) AsStringUriOnly() string {
	var b strings.Builder
	b.WriteString(a.Scheme())
	b.WriteByte(':')
	if a.uri.User != "" {
		b.WriteString(a.uri.User)
		b.WriteByte('@')
	}
	b.WriteString(strings.ToLower(a.uri.Host))
	if a.uri.Port > 0 {
		fmt.Fprintf(&b, ":%d", a.uri.Port)
	}
	return b.String()
}

// Key is the normalized lookup key used for membership: parameters are
// ignored, scheme and host are case-insensitive, the user part is not.
func (a *Address) Key() string {
	if a == nil {
		return ""
	}
	return a.AsStringUriOnly()
}

// canonical returns the full URI with sorted, lowercased parameter names
func (a *Address) canonical() string {
	params := a.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(a.AsStringUriOnly())
	for _, k := range keys {
		b.WriteByte(';')
		b.WriteString(k)
		if v := params[k]; v != "" {
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
