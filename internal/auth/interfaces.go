package auth

import "errors"

var (
	// ErrNotDigest is returned for challenges of another scheme
	ErrNotDigest = errors.New("not a digest challenge")
	// ErrUnsupportedAlgorithm is returned for algorithms other than MD5
	ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")
	// ErrRealmMismatch is returned when the credentials are bound to
	// another realm than the challenge
	ErrRealmMismatch = errors.New("credentials realm mismatch")
)

// Credentials authenticate an account towards its registrar
type Credentials struct {
	Username string
	Password string
	// Realm restricts the credentials to one realm. Empty answers any.
	Realm string
}

// Empty reports whether no username is configured
func (c Credentials) Empty() bool {
	return c.Username == ""
}

// Challenge represents a parsed WWW-Authenticate or Proxy-Authenticate
// digest challenge
type Challenge struct {
	Realm     string
	Nonce     string
	Opaque    string
	Algorithm string
	// QOP is the qop-options list as sent by the server
	QOP   string
	Stale bool
}
