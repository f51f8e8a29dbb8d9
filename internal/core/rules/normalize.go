package rules

import (
	"strings"
)

// legalEntitySuffixes are dropped before party comparison so that
// "Acme, LLC" and "ACME LLC" are the same tenant, not a conflict.
var legalEntitySuffixes = map[string]bool{
	"llc":          true,
	"llp":          true,
	"lp":           true,
	"ltd":          true,
	"limited":      true,
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"pllc":         true,
	"pc":           true,
	"na":           true,
}

// NormalizeParty lowercases, strips punctuation, and drops trailing legal
// entity suffixes. Formatting-only differences normalize to the same string.
func NormalizeParty(name string) string {
	tokens := tokenize(name)

	// Trailing suffix runs go, interior words stay ("Company Store LLC"
	// keeps "store", drops "llc").
	for len(tokens) > 1 && legalEntitySuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// street word spellings folded to one canonical token.
var streetAbbreviations = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"road":      "rd",
	"lane":      "ln",
	"court":     "ct",
	"place":     "pl",
	"suite":     "ste",
	"floor":     "fl",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
}

// NormalizeAddress canonicalizes an address string for comparison.
func NormalizeAddress(addr string) string {
	tokens := tokenize(addr)
	for i, tok := range tokens {
		if short, ok := streetAbbreviations[tok]; ok {
			tokens[i] = short
		}
	}
	return strings.Join(tokens, " ")
}

func tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}
