// Package categorize provides importer.Categorizer implementations: an
// offline matcher against the store's own layout names, a Gemini-backed
// categorizer and parser, and Chain to combine them.
package categorize

import (
	"context"
	"errors"
	"strings"

	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
)

// Names places an item in the section (or aisle) whose name matches a word
// run of the item name after normalization, so "skim milk" lands in a "Milk"
// section and "apples" in "Apple". Sections win over aisles and longer
// matches over shorter ones.
type Names struct{}

var _ importer.Categorizer = Names{}

// Categorize implements importer.Categorizer.
func (Names) Categorize(_ context.Context, name string, tree model.LayoutTree) (model.Suggestion, error) {
	words := wordKeys(name)
	if len(words) == 0 {
		return model.Suggestion{}, nil
	}

	var best model.Suggestion
	bestLen := 0
	for _, a := range tree.Aisles {
		for _, s := range a.Sections {
			if n := matchLen(words, s.Name); n > bestLen {
				best, bestLen = model.Suggestion{AisleID: a.ID, SectionID: s.ID}, n
			}
		}
	}
	if bestLen > 0 {
		return best, nil
	}
	for _, a := range tree.Aisles {
		if n := matchLen(words, a.Name); n > bestLen {
			best, bestLen = model.Suggestion{AisleID: a.ID}, n
		}
	}
	return best, nil
}

// matchLen returns the word count of label when it occurs as a contiguous
// run in words, else 0.
func matchLen(words []string, label string) int {
	want := wordKeys(label)
	if len(want) == 0 || len(want) > len(words) {
		return 0
	}
	for i := 0; i+len(want) <= len(words); i++ {
		if equalWords(words[i:i+len(want)], want) {
			return len(want)
		}
	}
	return 0
}

// wordKeys normalizes each word of s on its own, so plurals match anywhere
// in the name and not only in last position.
func wordKeys(s string) []string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = normalize.Name(w)
	}
	return words
}

func equalWords(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Chain asks each categorizer in turn and returns the first suggestion that
// names an aisle or section. Errors are remembered and returned only when
// no categorizer produced a suggestion.
type Chain []importer.Categorizer

var _ importer.Categorizer = Chain(nil)

// Categorize implements importer.Categorizer.
func (c Chain) Categorize(ctx context.Context, name string, tree model.LayoutTree) (model.Suggestion, error) {
	var errs []error
	for _, cat := range c {
		s, err := cat.Categorize(ctx, name, tree)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if s.AisleID != "" || s.SectionID != "" {
			return s, nil
		}
	}
	return model.Suggestion{}, errors.Join(errs...)
}
