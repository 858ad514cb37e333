package dialplan

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// DialPlan describes how phone numbers are written in one country
type DialPlan struct {
	Country                 string
	ISO                     string
	CCC                     string
	NationalNumberLength    int
	InternationalCallPrefix string
}

// IsGeneric reports whether the plan is the generic fallback plan
func (p DialPlan) IsGeneric() bool {
	return p.Country == MostCommon.Country
}

// All returns a copy of the dial plan table
func All() []DialPlan {
	out := make([]DialPlan, len(plans))
	copy(out, plans)
	return out
}

// ByCcc returns the first plan with the given country calling code.
// An empty or unknown code yields MostCommon.
func ByCcc(ccc string) DialPlan {
	if ccc == "" {
		return MostCommon
	}
	plan, ok := lo.Find(plans, func(p DialPlan) bool { return p.CCC == ccc })
	if !ok {
		return MostCommon
	}
	return plan
}

// LookupCccFromIso returns the calling code for an ISO country code, or -1
func LookupCccFromIso(iso string) int {
	plan, ok := lo.Find(plans, func(p DialPlan) bool { return p.ISO == iso })
	if !ok {
		return -1
	}
	ccc, err := strconv.Atoi(plan.CCC)
	if err != nil {
		return -1
	}
	return ccc
}

// LookupCccFromE164 finds the country calling code of a "+"-prefixed number.
// The prefix grows one digit at a time until exactly one plan matches.
// It returns -1 when the number is not E.164 or no single plan matches.
func LookupCccFromE164(e164 string) int {
	if len(e164) < 2 || e164[0] != '+' {
		return -1
	}
	// NANP numbers share "1" across many plans.
	if e164[1] == '1' {
		return 1
	}

	digits := e164[1:]
	var elected DialPlan
	found := 0
	for i := 1; ; i++ {
		found = lo.CountBy(plans, func(p DialPlan) bool { return prefixMatches(p.CCC, digits, i) })
		if found == 1 {
			elected, _ = lo.Find(plans, func(p DialPlan) bool { return prefixMatches(p.CCC, digits, i) })
			break
		}
		if i >= len(e164)-1 {
			break
		}
	}
	if found != 1 {
		return -1
	}
	ccc, err := strconv.Atoi(elected.CCC)
	if err != nil {
		return -1
	}
	return ccc
}

// prefixMatches compares at most n leading characters the way strncmp does:
// a string shorter than n only matches when both strings end together.
func prefixMatches(ccc, digits string, n int) bool {
	a := ccc
	if len(a) > n {
		a = a[:n]
	}
	b := digits
	if len(b) > n {
		b = b[:n]
	}
	return a == b
}

// hasPrefix is strings.HasPrefix with an empty prefix never matching
func hasPrefix(s, prefix string) bool {
	return prefix != "" && strings.HasPrefix(s, prefix)
}
