package address

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	a, err := Parse("sips:conf233@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sips", a.Scheme())
	assert.True(t, a.Secure())
	assert.Equal(t, "conf233", a.User())
	assert.Equal(t, "example.com", a.Host())

	a, err = Parse("Alice <sip:alice@Example.COM:5070;transport=TCP>")
	require.NoError(t, err)
	assert.Equal(t, 5070, a.Port())
	assert.Equal(t, "tcp", a.Transport())
	assert.Equal(t, "sip:alice@example.com:5070", a.Key())

	a, err = Parse("sip:4kfk4j392jsu@example.com;grid=433kj4j3u")
	require.NoError(t, err)
	assert.Equal(t, "433kj4j3u", a.Param("grid"))
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "alice", "tel:+3312345", "Alice <sip:alice@example.com", "sip:"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAddress))
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected Equality
	}{
		{"identical", "sip:bob@example.com", "sip:bob@example.com", Equal},
		{"host case", "sip:bob@EXAMPLE.com", "sip:bob@example.com", Equal},
		{"param order", "sip:bob@example.com;a=1;b=2", "sip:bob@example.com;b=2;a=1", Equal},
		{"extra param", "sip:bob@example.com;grid=1", "sip:bob@example.com", WeakEqual},
		{"different param value", "sip:bob@example.com;grid=1", "sip:bob@example.com;grid=2", WeakEqual},
		{"transport differs", "sip:bob@example.com;transport=tcp", "sip:bob@example.com;transport=udp", Different},
		{"secure differs", "sips:bob@example.com", "sip:bob@example.com", Different},
		{"user differs", "sip:bob@example.com", "sip:alice@example.com", Different},
		{"port differs", "sip:bob@example.com:5060", "sip:bob@example.com:5070", Different},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compare(MustParse(tt.a), MustParse(tt.b)))
			assert.Equal(t, tt.expected, Compare(MustParse(tt.b), MustParse(tt.a)))
		})
	}
}

func TestCompare_Nil(t *testing.T) {
	assert.Equal(t, Equal, Compare(nil, nil))
	assert.Equal(t, Different, Compare(MustParse("sip:bob@example.com"), nil))
	assert.Equal(t, Different, Compare(nil, MustParse("sip:bob@example.com")))
}

func TestServerConfigChanged(t *testing.T) {
	id := MustParse("sip:bob@example.com")
	idGruu := MustParse("sip:bob@example.com;gr=abc")
	other := MustParse("sip:alice@example.com")
	srv := MustParse("sip:example.com")
	srvLr := MustParse("sip:example.com;lr")
	srvTCP := MustParse("sip:example.com;transport=tcp")

	tests := []struct {
		name          string
		savedID, id   *Address
		savedSrv, srv *Address
		expected      Equality
	}{
		{"nothing changed", id, id, srv, srv, Equal},
		{"identity weak", id, idGruu, srv, srv, WeakEqual},
		{"identity different", id, other, srv, srv, Different},
		{"server weak", id, id, srv, srvLr, WeakEqual},
		{"server transport", id, id, srv, srvTCP, Different},
		{"server removed", id, id, srv, nil, Different},
		{"first configuration", nil, id, nil, srv, Different},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ServerConfigChanged(tt.savedID, tt.id, tt.savedSrv, tt.srv))
		})
	}
}

func TestEquality_String(t *testing.T) {
	assert.Equal(t, "equal", Equal.String())
	assert.Equal(t, "weak-equal", WeakEqual.String())
	assert.Equal(t, "different", Different.String())
	assert.Equal(t, "unknown", Equality(42).String())
}
