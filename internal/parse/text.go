// Package parse turns pasted shopping lists into parsed items for the
// bulk importer.
//
// Two local parsers are provided: Text reads one item per line in the loose
// form people type ("2 l milk (organic)", "eggs x12", "- bread"), and YAML
// reads a structured document. Both satisfy importer.Parser.
package parse

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/model"
)

// ErrNoText is returned when a local parser is handed an input without text.
var ErrNoText = errors.New("input has no text")

// Text parses free-form lines. The zero value is ready to use.
type Text struct{}

var _ importer.Parser = Text{}

// Parse implements importer.Parser. Images are not readable locally.
func (Text) Parse(_ context.Context, in importer.Input) ([]model.ParsedItem, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrNoText
	}
	return Lines(in.Text), nil
}

// units recognized after a leading quantity. Anything else is part of the name.
var units = map[string]bool{
	"g": true, "kg": true, "mg": true,
	"l": true, "ml": true, "cl": true, "dl": true,
	"oz": true, "lb": true, "lbs": true,
	"pt": true, "qt": true, "gal": true,
	"cup": true, "cups": true, "tbsp": true, "tsp": true,
	"pack": true, "packs": true, "pk": true,
	"can": true, "cans": true, "jar": true, "jars": true,
	"bottle": true, "bottles": true, "box": true, "boxes": true,
	"bag": true, "bags": true, "bunch": true, "bunches": true,
	"dozen": true, "pcs": true, "piece": true, "pieces": true,
}

var (
	// "1. ", "2) ", "- ", "* ", "• ", "[ ] ", "[x] "
	bulletPattern = regexp.MustCompile(`^(?:\d+[.)]\s+|[-*•+](?:\s+|$)|\[[ xX]?\]\s*)`)
	notesPattern  = regexp.MustCompile(`\s*\(([^()]*)\)\s*$`)
	leadQty       = regexp.MustCompile(`^(\d+/\d+|\d+(?:[.,]\d+)?)`)
	trailQty      = regexp.MustCompile(`\s+[x×]\s*(\d+(?:[.,]\d+)?)$`)
	unitPrefix    = regexp.MustCompile(`^([a-zA-Z]+)(\s+|$)`)
)

// Lines parses text with one item per line. Blank lines and lines starting
// with '#' are skipped; ';' also separates items.
func Lines(text string) []model.ParsedItem {
	items := []model.ParsedItem{}
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ';' }) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if item, ok := Line(line); ok {
			items = append(items, item)
		}
	}
	return items
}

// Line parses a single line. It reports false when nothing but decoration
// is left once bullets, quantity and notes are stripped.
func Line(line string) (model.ParsedItem, bool) {
	line = strings.TrimSpace(bulletPattern.ReplaceAllString(strings.TrimSpace(line), ""))

	var item model.ParsedItem
	if m := notesPattern.FindStringSubmatchIndex(line); m != nil {
		item.Notes = strings.TrimSpace(line[m[2]:m[3]])
		line = strings.TrimSpace(line[:m[0]])
	}

	if qty, rest, ok := leading(line); ok {
		item.Quantity = &qty
		if m := unitPrefix.FindStringSubmatch(rest); m != nil && units[strings.ToLower(m[1])] {
			item.Unit = strings.ToLower(m[1])
			rest = strings.TrimSpace(rest[len(m[0]):])
		}
		line = rest
	} else if m := trailQty.FindStringSubmatchIndex(line); m != nil {
		if qty, ok := number(line[m[2]:m[3]]); ok {
			item.Quantity = &qty
			line = strings.TrimSpace(line[:m[0]])
		}
	}

	item.Name = strings.Join(strings.Fields(line), " ")
	if item.Name == "" {
		return model.ParsedItem{}, false
	}
	return item, true
}

// leading splits a quantity off the front of line. The number must be
// followed by whitespace, an "x" multiplier, or a known unit, so names like
// "7up" stay intact.
func leading(line string) (float64, string, bool) {
	m := leadQty.FindString(line)
	if m == "" {
		return 0, "", false
	}
	rest := line[len(m):]
	if !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, "\t") && !multiplier(rest) {
		u := unitPrefix.FindStringSubmatch(rest)
		if u == nil || !units[strings.ToLower(u[1])] {
			return 0, "", false
		}
	}
	rest = strings.TrimSpace(rest)
	if multiplier(rest) {
		_, size := utf8.DecodeRuneInString(rest)
		rest = strings.TrimSpace(rest[size:])
	}
	if rest == "" {
		return 0, "", false
	}
	qty, ok := number(m)
	if !ok {
		return 0, "", false
	}
	return qty, rest, true
}

// multiplier reports whether s starts with "x " or "× ".
func multiplier(s string) bool {
	return strings.HasPrefix(s, "x ") || strings.HasPrefix(s, "× ")
}

// number parses "2", "1.5", "1,5" and "1/2".
func number(s string) (float64, bool) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
