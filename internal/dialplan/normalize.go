package dialplan

import (
	"strconv"
	"strings"
)

// Context carries the per-account settings that influence normalization
type Context struct {
	// DialPrefix is the country calling code of the account, without "+".
	DialPrefix string
	// EscapePlus replaces the leading "+" by the international call prefix.
	EscapePlus bool
}

// IsPhoneNumber reports whether s only contains characters found in
// human-formatted phone numbers.
func IsPhoneNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == ' ', c == '.', c == '-', c == '(', c == ')', c == '/', c == '+':
		// non-breaking space bytes, as produced by iOS contact formatting
		case c == 0xca, c == 0xc2, c == 0xa0:
		default:
			return false
		}
	}
	return true
}

// Flatten removes everything but digits and '+'
func Flatten(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '+' || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Normalize rewrites a phone number into E.164 form using the dial plan
// selected by ctx. A nil ctx behaves like an account without dial prefix.
// The boolean is false when s does not look like a phone number, in which
// case s is returned unchanged.
func Normalize(ctx *Context, s string) (string, bool) {
	if !IsPhoneNumber(s) {
		return s, false
	}
	if ctx == nil {
		ctx = &Context{}
	}
	return normalizeFlat(ctx, Flatten(s)), true
}

func normalizeFlat(ctx *Context, flat string) string {
	var plan DialPlan
	var nsn string

	if ccc := LookupCccFromE164(flat); ccc > -1 {
		plan = ByCcc(strconv.Itoa(ccc))
		nsn = flat
		if idx := strings.Index(flat, plan.CCC); idx >= 0 {
			nsn = flat[idx+len(plan.CCC):]
		}
	} else if strings.HasPrefix(flat, "+") {
		// unknown calling code, keep as is
		return flat
	} else {
		plan = MostCommon
		if ctx.DialPrefix != "" {
			plan = ByCcc(ctx.DialPrefix)
			if plan.CCC != ctx.DialPrefix {
				// generic plan, keep the account's own prefix
				plan.CCC = ctx.DialPrefix
			}
			if hasPrefix(flat, plan.InternationalCallPrefix) {
				return normalizeFlat(ctx, "+"+flat[len(plan.InternationalCallPrefix):])
			}
		}
		nsn = flat
	}

	if plan.CCC == "" {
		return flat
	}
	if extra := len(nsn) - plan.NationalNumberLength; extra > 0 {
		nsn = nsn[extra:]
	}
	lead := "+"
	if ctx.EscapePlus {
		lead = plan.InternationalCallPrefix
	}
	return lead + plan.CCC + nsn
}
