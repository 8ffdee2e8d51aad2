package importer

import (
	"context"

	"github.com/roach88/cartkeeper/internal/model"
)

// Categorizer proposes an aisle and section for an item name given the
// store's layout. An error or an empty suggestion means "don't know".
type Categorizer interface {
	Categorize(ctx context.Context, name string, tree model.LayoutTree) (model.Suggestion, error)
}

// CategorizerFunc adapts a function to Categorizer.
type CategorizerFunc func(ctx context.Context, name string, tree model.LayoutTree) (model.Suggestion, error)

// Categorize calls f.
func (f CategorizerFunc) Categorize(ctx context.Context, name string, tree model.LayoutTree) (model.Suggestion, error) {
	return f(ctx, name, tree)
}

// NoCategorizer never suggests anything. New items land uncategorized.
var NoCategorizer = CategorizerFunc(func(context.Context, string, model.LayoutTree) (model.Suggestion, error) {
	return model.Suggestion{}, nil
})

// Input is raw material for a Parser: free text, an image, or both.
type Input struct {
	Text     string
	Image    []byte
	MIMEType string
}

// Parser turns free text or an image into parsed items.
type Parser interface {
	Parse(ctx context.Context, in Input) ([]model.ParsedItem, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, in Input) ([]model.ParsedItem, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, in Input) ([]model.ParsedItem, error) {
	return f(ctx, in)
}

// Catalog is the part of the entity store the reconciler reads and writes.
// *store.Store implements it.
type Catalog interface {
	GetStore(ctx context.Context, id string) (model.Store, error)
	GetList(ctx context.Context, id string) (model.ShoppingList, error)
	ActiveList(ctx context.Context, storeID string) (model.ShoppingList, error)
	LayoutTree(ctx context.Context, storeID string) (model.LayoutTree, error)
	FindItemByName(ctx context.Context, storeID, name string) (model.Item, error)
	CreateItem(ctx context.Context, in model.NewItem) (model.Item, error)
	SaveListItem(ctx context.Context, in model.ListItemInput) (model.ListItem, error)
	Publish() error
}
