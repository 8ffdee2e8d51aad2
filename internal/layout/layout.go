// Package layout reads and writes store layouts as CUE files and applies
// them to a store.
//
// A layout file lists aisles in walking order, each with its sections:
//
//	store: "Corner Market"
//	aisles: [
//		{name: "Produce", sections: ["Fruit", "Vegetables"]},
//		{name: "Dairy", sections: ["Milk", "Cheese"]},
//	]
package layout

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/ast/astutil"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cartkeeper/internal/model"
)

// schema closes #Layout so that misspelled fields are errors.
const schema = `
#Layout: {
	store?: string
	aisles: [...#Aisle]
}

#Aisle: {
	name: string & =~"\\S"
	sections: [...string & =~"\\S"] | *[]
}
`

// Layout is a parsed layout file.
type Layout struct {
	Store  string  `json:"store,omitempty"`
	Aisles []Aisle `json:"aisles"`
}

// Aisle is one aisle of a layout with its sections in order.
type Aisle struct {
	Name     string   `json:"name"`
	Sections []string `json:"sections"`
}

// Error is a layout file problem, with a position when CUE knows one.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

func fromCUE(err error) *Error {
	e := &Error{Message: cueerrors.Details(err, nil)}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		e.Message = errs[0].Error()
		if pos := errs[0].Position(); pos.IsValid() {
			e.Pos = pos
		}
	}
	return e
}

// Load reads and parses a layout file.
func Load(path string) (Layout, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return Parse(path, src)
}

// Parse validates src against the layout schema and decodes it.
func Parse(filename string, src []byte) (Layout, error) {
	ctx := cuecontext.New()
	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Layout"))
	if err := def.Err(); err != nil {
		return Layout{}, fmt.Errorf("layout schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Layout{}, fromCUE(err)
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Layout{}, fromCUE(err)
	}

	var l Layout
	if err := v.Decode(&l); err != nil {
		return Layout{}, fromCUE(err)
	}
	for i := range l.Aisles {
		if l.Aisles[i].Sections == nil {
			l.Aisles[i].Sections = []string{}
		}
	}
	if err := l.check(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// check rejects names that would match the same aisle or section twice.
func (l Layout) check() error {
	aisles := make(map[string]bool)
	for _, a := range l.Aisles {
		key := nameKey(a.Name)
		if aisles[key] {
			return &Error{Message: fmt.Sprintf("aisle %q is listed twice", a.Name)}
		}
		aisles[key] = true

		sections := make(map[string]bool)
		for _, s := range a.Sections {
			key := nameKey(s)
			if sections[key] {
				return &Error{Message: fmt.Sprintf("section %q is listed twice in aisle %q", s, a.Name)}
			}
			sections[key] = true
		}
	}
	return nil
}

func nameKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// FromTree converts a store's current layout to a Layout.
func FromTree(storeName string, tree model.LayoutTree) Layout {
	l := Layout{Store: storeName, Aisles: make([]Aisle, 0, len(tree.Aisles))}
	for _, a := range tree.Aisles {
		sections := make([]string, 0, len(a.Sections))
		for _, s := range a.Sections {
			sections = append(sections, s.Name)
		}
		l.Aisles = append(l.Aisles, Aisle{Name: a.Name, Sections: sections})
	}
	return l
}

// Format renders l as CUE source that Parse accepts.
func Format(l Layout) ([]byte, error) {
	ctx := cuecontext.New()
	v := ctx.Encode(l)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	expr, ok := v.Syntax(cue.Final(), cue.Concrete(true)).(ast.Expr)
	if !ok {
		return nil, fmt.Errorf("format layout: unexpected syntax node")
	}
	file, err := astutil.ToFile(expr)
	if err != nil {
		return nil, fmt.Errorf("format layout: %w", err)
	}
	out, err := format.Node(file, format.Simplify())
	if err != nil {
		return nil, fmt.Errorf("format layout: %w", err)
	}
	return out, nil
}
