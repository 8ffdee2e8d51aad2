// Package normalize canonicalizes item names for catalog deduplication.
//
// Name produces the key stored in name_norm columns. The key is not
// reversible and deliberately collapses display variants: "Apple", " apples "
// and "APPLES" share one key. Matching is exact comparison of keys; there is
// no fuzzy matching.
package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Grocery words that the generic English rules would mangle
// ("pasta" -> "pastum", "hummus" -> "hummu").
var uncountable = []string{
	"asparagus", "chia", "ciabatta", "couscous", "cotta", "feta", "focaccia",
	"frittata", "grits", "hummus", "molasses", "pasta", "pita", "polenta",
	"ricotta", "swiss", "tapioca", "tilapia", "pancetta", "burrata", "stevia",
}

// maxSingularPasses bounds the fixed-point loop in singular.
const maxSingularPasses = 3

func init() {
	inflection.AddUncountable(uncountable...)
}

// Name returns the normalized key for an item name: Unicode NFC, trimmed,
// internal whitespace collapsed, lowercased, with the last word singularized.
//
// Name is idempotent: Name(Name(s)) == Name(s).
func Name(s string) string {
	s = clean(s)
	if s == "" {
		return ""
	}
	s = lower(s)

	head, last := "", s
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		head, last = s[:i+1], s[i+1:]
	}
	return head + singular(last)
}

// singular applies the inflection rules until the word stops changing, so
// a singular form is never rewritten again ("tilapias" -> "tilapia" must
// not go on to "tilapium" on the next call).
func singular(word string) string {
	for range maxSingularPasses {
		next := lower(inflection.Singular(word))
		if next == word {
			break
		}
		word = next
	}
	return word
}

// Equal reports whether two names normalize to the same key.
func Equal(a, b string) bool {
	return Name(a) == Name(b)
}

// SentenceCase returns s trimmed with its first letter upper-cased and the
// rest lower-cased: "mILK chocolate" -> "Milk chocolate".
func SentenceCase(s string) string {
	s = clean(s)
	if s == "" {
		return ""
	}
	s = lower(s)
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + s[size:]
}

// clean applies NFC and collapses whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Casers hold state and must not be shared between goroutines.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
