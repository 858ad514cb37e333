package auth

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var challengePatterns = map[string]*regexp.Regexp{
	"realm":     regexp.MustCompile(`realm="([^"]*)"` + `|realm=([^,\s]*)`),
	"nonce":     regexp.MustCompile(`nonce="([^"]*)"` + `|nonce=([^,\s]*)`),
	"opaque":    regexp.MustCompile(`opaque="([^"]*)"` + `|opaque=([^,\s]*)`),
	"algorithm": regexp.MustCompile(`algorithm="([^"]*)"` + `|algorithm=([^,\s]*)`),
	"qop":       regexp.MustCompile(`qop="([^"]*)"` + `|qop=([^,\s]*)`),
	"stale":     regexp.MustCompile(`stale="([^"]*)"` + `|stale=([^,\s]*)`),
}

// ParseChallenge parses a WWW-Authenticate or Proxy-Authenticate value
func ParseChallenge(header string) (*Challenge, error) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "Digest ") {
		return nil, ErrNotDigest
	}
	params := header[7:]

	ch := &Challenge{}
	for param, pattern := range challengePatterns {
		matches := pattern.FindStringSubmatch(params)
		if len(matches) < 2 {
			continue
		}
		// quoted or unquoted form
		value := matches[1]
		if value == "" && len(matches) > 2 {
			value = matches[2]
		}
		switch param {
		case "realm":
			ch.Realm = value
		case "nonce":
			ch.Nonce = value
		case "opaque":
			ch.Opaque = value
		case "algorithm":
			ch.Algorithm = value
		case "qop":
			ch.QOP = value
		case "stale":
			ch.Stale = strings.EqualFold(value, "true")
		}
	}

	if ch.Realm == "" {
		return nil, fmt.Errorf("missing realm in challenge")
	}
	if ch.Nonce == "" {
		return nil, fmt.Errorf("missing nonce in challenge")
	}
	if ch.Algorithm == "" {
		ch.Algorithm = "MD5"
	}
	return ch, nil
}

// supportsAuth reports whether the server offered qop=auth
func (c *Challenge) supportsAuth() bool {
	for _, opt := range strings.Split(c.QOP, ",") {
		if strings.TrimSpace(opt) == "auth" {
			return true
		}
	}
	return false
}

// Authorize answers the challenge for a request and returns the
// Authorization header value
func (c *Challenge) Authorize(creds Credentials, method, uri string) (string, error) {
	cnonce, err := newCNonce()
	if err != nil {
		return "", err
	}
	return c.authorize(creds, method, uri, "00000001", cnonce)
}

func (c *Challenge) authorize(creds Credentials, method, uri, nc, cnonce string) (string, error) {
	if !strings.EqualFold(c.Algorithm, "MD5") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, c.Algorithm)
	}
	if creds.Realm != "" && creds.Realm != c.Realm {
		return "", fmt.Errorf("%w: %s", ErrRealmMismatch, c.Realm)
	}

	ha1 := md5Hex(fmt.Sprintf("%s:%s:%s", creds.Username, c.Realm, creds.Password))
	qop := ""
	if c.supportsAuth() {
		qop = "auth"
	}
	response := digestResponse(ha1, c.Nonce, nc, cnonce, qop, method, uri)

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s", algorithm=MD5`,
		creds.Username, c.Realm, c.Nonce, uri, response)
	if c.Opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, c.Opaque)
	}
	if qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%s, cnonce="%s"`, qop, nc, cnonce)
	}
	return b.String(), nil
}

// digestResponse computes the RFC 2617 request digest from HA1
func digestResponse(ha1, nonce, nc, cnonce, qop, method, uri string) string {
	ha2 := md5Hex(fmt.Sprintf("%s:%s", method, uri))
	if qop == "auth" {
		return md5Hex(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, nonce, nc, cnonce, qop, ha2))
	}
	return md5Hex(fmt.Sprintf("%s:%s:%s", ha1, nonce, ha2))
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newCNonce() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate cnonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
