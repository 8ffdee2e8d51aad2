package parse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/model"
)

// YAML parses a structured list. The document is either a sequence or a
// mapping with an "items" sequence. Each entry is a mapping with the
// model.ParsedItem fields, or a plain string read like a Text line:
//
//	items:
//	  - name: milk
//	    quantity: 2
//	    unit: l
//	  - 6 eggs (free range)
type YAML struct{}

var _ importer.Parser = YAML{}

// Parse implements importer.Parser.
func (YAML) Parse(_ context.Context, in importer.Input) ([]model.ParsedItem, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrNoText
	}
	return Document([]byte(in.Text))
}

type yamlEntry struct {
	model.ParsedItem
}

func (e *yamlEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		item, ok := Line(node.Value)
		if !ok {
			return fmt.Errorf("line %d: empty item", node.Line)
		}
		e.ParsedItem = item
		return nil
	}
	if err := knownKeys(node, "name", "quantity", "unit", "notes"); err != nil {
		return err
	}
	var item struct {
		Name     string   `yaml:"name"`
		Quantity *float64 `yaml:"quantity"`
		Unit     string   `yaml:"unit"`
		Notes    string   `yaml:"notes"`
	}
	if err := node.Decode(&item); err != nil {
		return err
	}
	e.ParsedItem = model.ParsedItem{
		Name:     strings.TrimSpace(item.Name),
		Quantity: item.Quantity,
		Unit:     strings.TrimSpace(item.Unit),
		Notes:    strings.TrimSpace(item.Notes),
	}
	return nil
}

// Document decodes a YAML list document. Unknown mapping keys are rejected
// so typos such as "qty:" surface instead of being dropped. Entries with an
// empty name are returned as-is for the importer to report per item.
func Document(data []byte) ([]model.ParsedItem, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.ParsedItem{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seq := &root
	if seq.Kind == yaml.DocumentNode && len(seq.Content) == 1 {
		seq = seq.Content[0]
	}
	if seq.Kind == yaml.MappingNode {
		if err := knownKeys(seq, "items"); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		var doc struct {
			Items yaml.Node `yaml:"items"`
		}
		if err := seq.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		seq = &doc.Items
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("failed to parse YAML: line %d: expected a list of items", seq.Line)
	}

	var entries []yamlEntry
	if err := seq.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	items := make([]model.ParsedItem, len(entries))
	for i, e := range entries {
		items[i] = e.ParsedItem
	}
	return items, nil
}

// knownKeys rejects mapping keys outside allowed.
func knownKeys(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return fmt.Errorf("line %d: unknown field %q", key.Line, key.Value)
		}
	}
	return nil
}
