package dialplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPhoneNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0952636505", true},
		{"+33 9 52 63 65 05", true},
		{"(012) 345-6789", true},
		{"01.23.45/67", true},
		{"06\xc2\xa012\xc2\xa034", true},
		{"alice", false},
		{"0952a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPhoneNumber(tt.input))
		})
	}
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "0123456789", Flatten("012 345 6789"))
	assert.Equal(t, "+330952636505", Flatten("+33 (0)9-52.63/65 05"))
	assert.Equal(t, "", Flatten("-- ()"))
}

func TestLookupCccFromE164(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"+33952636505", 33},
		{"+15145551234", 1},
		{"+41791234567", 41},
		{"+8613012345678", 86},
		{"+352661234567", 352},
		{"0952636505", -1},
		{"+", -1},
		{"", -1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LookupCccFromE164(tt.input))
		})
	}
}

func TestByCcc(t *testing.T) {
	assert.Equal(t, "France", ByCcc("33").Country)
	assert.True(t, ByCcc("").IsGeneric())
	assert.True(t, ByCcc("9999").IsGeneric())
	assert.Equal(t, 33, LookupCccFromIso("FR"))
	assert.Equal(t, -1, LookupCccFromIso("XX"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		ctx      *Context
		input    string
		expected string
		ok       bool
	}{
		{"national number with prefix", &Context{DialPrefix: "33"}, "0952636505", "+33952636505", true},
		{"escape plus", &Context{DialPrefix: "33", EscapePlus: true}, "0952636505", "0033952636505", true},
		{"no dial context", nil, "012 345 6789", "0123456789", true},
		{"international call prefix", &Context{DialPrefix: "33"}, "0033952636505", "+33952636505", true},
		{"already e164", &Context{DialPrefix: "33"}, "+33 9 52 63 65 05", "+33952636505", true},
		{"e164 escaped", &Context{DialPrefix: "1", EscapePlus: true}, "+33952636505", "0033952636505", true},
		{"us number", &Context{DialPrefix: "1"}, "(514) 555-1234", "+15145551234", true},
		{"unknown prefix keeps account ccc", &Context{DialPrefix: "9999"}, "0123456789", "+99990123456789", true},
		{"unknown e164 ccc", &Context{DialPrefix: "33"}, "+999123", "+999123", true},
		{"not a phone number", &Context{DialPrefix: "33"}, "alice", "alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.ctx, tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
