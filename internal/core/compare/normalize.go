package compare

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// exactForm trims, composes and collapses runs of whitespace. Case is kept.
func exactForm(s string) string {
	return collapseSpace(norm.NFC.String(s))
}

func fold(s string) string {
	// Casers carry state, so one per call.
	return cases.Fold().String(s)
}

// normalizedForm is the comparison key for normalized-text fields:
// compatibility-composed, case folded, apostrophes dropped, other
// punctuation and symbols replaced by spaces, whitespace collapsed.
func normalizedForm(s string) string {
	s = fold(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		if r == '\'' || r == '’' {
			return -1
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
	return collapseSpace(s)
}
