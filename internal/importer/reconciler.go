package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
	"github.com/roach88/cartkeeper/internal/store"
)

// DefaultConcurrency bounds in-flight categorizer calls.
const DefaultConcurrency = 4

// Request is one bulk import. An empty ListID targets the store's active list.
type Request struct {
	StoreID string
	ListID  string
	Items   []model.ParsedItem
}

// Result summarizes an import.
type Result struct {
	ListID    string
	Total     int
	Succeeded int
	Failed    int

	// Categorized counts new catalog items placed in at least an aisle.
	Categorized int

	CreatedItems []model.Item
	ListItems    []model.ListItem
	Errors       []*ItemError
}

// Reconciler imports parsed items into a catalog and a shopping list.
type Reconciler struct {
	catalog     Catalog
	categorizer Categorizer
	logger      *slog.Logger
	concurrency int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithConcurrency bounds in-flight categorizer calls. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		r.concurrency = max(n, 1)
	}
}

// New creates a Reconciler. A nil categorizer leaves new items uncategorized.
func New(catalog Catalog, categorizer Categorizer, opts ...Option) *Reconciler {
	if categorizer == nil {
		categorizer = NoCategorizer
	}
	r := &Reconciler{
		catalog:     catalog,
		categorizer: categorizer,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pending is a parsed item that passed validation.
type pending struct {
	index int
	name  string
	norm  string
	qty   float64
	unit  string
	notes string
}

// Import reconciles req.Items in order. Only batch-level problems (unknown
// store or list, unreadable layout) return an error; per-item failures are
// collected in Result.Errors and logged.
func (r *Reconciler) Import(ctx context.Context, req Request) (Result, error) {
	if _, err := r.catalog.GetStore(ctx, req.StoreID); err != nil {
		return Result{}, err
	}
	list, err := r.targetList(ctx, req)
	if err != nil {
		return Result{}, err
	}
	tree, err := r.catalog.LayoutTree(ctx, req.StoreID)
	if err != nil {
		return Result{}, fmt.Errorf("load layout: %w", err)
	}

	res := Result{ListID: list.ID, Total: len(req.Items)}
	fail := func(index int, name string, err error) {
		ie := &ItemError{Index: index, Name: name, Err: err}
		res.Errors = append(res.Errors, ie)
		res.Failed++
		r.logger.Warn("import item failed", "index", index, "name", name, "error", err)
	}

	var items []pending
	for i, p := range req.Items {
		it, err := validate(i, p)
		if err != nil {
			fail(i, p.Name, err)
			continue
		}
		items = append(items, it)
	}

	known, unseen, lookupErrs := r.lookup(ctx, req.StoreID, items)
	suggestions := r.categorizeAll(ctx, unseen, tree)

	for _, it := range items {
		if err, ok := lookupErrs[it.norm]; ok {
			fail(it.index, it.name, err)
			continue
		}
		item, ok := known[it.norm]
		if !ok {
			var created bool
			item, created, err = r.createItem(ctx, req.StoreID, it, tree, suggestions[it.norm])
			if err != nil {
				fail(it.index, it.name, err)
				continue
			}
			known[it.norm] = item
			if created {
				res.CreatedItems = append(res.CreatedItems, item)
				if item.AisleID != nil {
					res.Categorized++
				}
			}
		}

		li, err := r.catalog.SaveListItem(ctx, model.ListItemInput{
			ListID:      list.ID,
			StoreItemID: &item.ID,
			Qty:         it.qty,
			Unit:        it.unit,
			Notes:       it.notes,
		})
		if err != nil {
			fail(it.index, it.name, err)
			continue
		}
		res.ListItems = append(res.ListItems, li)
		res.Succeeded++
	}

	// Every write already published; one more lets list readers refresh
	// once with the whole batch in place.
	if err := r.catalog.Publish(); err != nil {
		r.logger.Warn("post-import notification failed", "error", err)
	}

	r.logger.Info("import finished",
		"store", req.StoreID,
		"list", list.ID,
		"total", res.Total,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"created", len(res.CreatedItems),
		"categorized", res.Categorized,
	)
	return res, nil
}

// ImportFrom parses in with p and imports the result. A parser failure fails
// the whole batch with a *ParseError.
func (r *Reconciler) ImportFrom(ctx context.Context, p Parser, in Input, storeID, listID string) (Result, error) {
	items, err := p.Parse(ctx, in)
	if err != nil {
		return Result{}, &ParseError{Err: err}
	}
	return r.Import(ctx, Request{StoreID: storeID, ListID: listID, Items: items})
}

func (r *Reconciler) targetList(ctx context.Context, req Request) (model.ShoppingList, error) {
	if req.ListID == "" {
		return r.catalog.ActiveList(ctx, req.StoreID)
	}
	list, err := r.catalog.GetList(ctx, req.ListID)
	if err != nil {
		return model.ShoppingList{}, err
	}
	if list.StoreID != req.StoreID {
		return model.ShoppingList{}, store.ConstraintViolation("list",
			fmt.Sprintf("list %s belongs to store %s, not %s", list.ID, list.StoreID, req.StoreID), nil)
	}
	return list, nil
}

func validate(index int, p model.ParsedItem) (pending, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return pending{}, errors.New("name is empty")
	}
	qty := 1.0
	if p.Quantity != nil {
		qty = *p.Quantity
	}
	if qty < 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return pending{}, fmt.Errorf("quantity must be a non-negative number, got %v", qty)
	}
	return pending{
		index: index,
		name:  name,
		norm:  normalize.Name(name),
		qty:   qty,
		unit:  strings.TrimSpace(p.Unit),
		notes: strings.TrimSpace(p.Notes),
	}, nil
}

// lookup finds existing catalog items and returns the distinct names that
// need categorizing, in first-seen order. A failed lookup is returned per
// normalized name so only the items carrying that name fail.
func (r *Reconciler) lookup(ctx context.Context, storeID string, items []pending) (map[string]model.Item, []string, map[string]error) {
	known := make(map[string]model.Item)
	failed := make(map[string]error)
	seen := make(map[string]bool)
	var unseen []string
	for _, it := range items {
		if seen[it.norm] {
			continue
		}
		seen[it.norm] = true

		item, err := r.catalog.FindItemByName(ctx, storeID, it.name)
		switch {
		case err == nil:
			known[it.norm] = item
		case store.IsNotFound(err):
			unseen = append(unseen, it.norm)
		default:
			failed[it.norm] = fmt.Errorf("look up %q: %w", it.name, err)
		}
	}
	return known, unseen, failed
}

// categorizeAll asks the categorizer about each name concurrently. Failures
// and panics are logged and yield an empty suggestion.
func (r *Reconciler) categorizeAll(ctx context.Context, names []string, tree model.LayoutTree) map[string]model.Suggestion {
	out := make([]model.Suggestion, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range names {
		g.Go(func() error {
			out[i] = r.categorize(gctx, name, tree)
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	byName := make(map[string]model.Suggestion, len(names))
	for i, name := range names {
		byName[name] = out[i]
	}
	return byName
}

func (r *Reconciler) categorize(ctx context.Context, name string, tree model.LayoutTree) (s model.Suggestion) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("categorizer panicked", "name", name, "panic", p)
			s = model.Suggestion{}
		}
	}()

	s, err := r.categorizer.Categorize(ctx, name, tree)
	if err != nil {
		r.logger.Warn("categorization failed", "name", name, "error", err)
		return model.Suggestion{}
	}
	return s
}

// createItem adds a catalog item placed per the suggestion. If another
// writer created the same name first, that item is returned instead.
func (r *Reconciler) createItem(ctx context.Context, storeID string, it pending, tree model.LayoutTree, s model.Suggestion) (model.Item, bool, error) {
	aisleID, sectionID := tree.Resolve(s)
	if s != (model.Suggestion{}) && aisleID == "" {
		r.logger.Debug("discarded suggestion outside layout", "name", it.name, "aisle", s.AisleID, "section", s.SectionID)
	}

	item, err := r.catalog.CreateItem(ctx, model.NewItem{
		StoreID:   storeID,
		Name:      normalize.SentenceCase(it.name),
		AisleID:   optional(aisleID),
		SectionID: optional(sectionID),
	})
	if store.IsConstraintViolation(err) {
		existing, lookupErr := r.catalog.FindItemByName(ctx, storeID, it.name)
		if lookupErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return model.Item{}, false, err
	}
	return item, true, nil
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
