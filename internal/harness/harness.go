package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cartkeeper/internal/categorize"
	"github.com/roach88/cartkeeper/internal/database"
	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/layout"
	"github.com/roach88/cartkeeper/internal/logging"
	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
	"github.com/roach88/cartkeeper/internal/parse"
	"github.com/roach88/cartkeeper/internal/store"
	"github.com/roach88/cartkeeper/internal/testutil"
	"github.com/roach88/cartkeeper/internal/views"
)

// runner holds the state of one scenario run.
type runner struct {
	st      *store.Store
	storeID string
	listID  string
	rec     *importer.Reconciler
	result  *Result
}

// Run executes a scenario against a fresh in-memory store and evaluates its
// assertions. Failed expectations and assertions are reported in the
// Result; the error return is reserved for problems that stop the run,
// such as a layout that cannot be applied.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	backend := &database.MemoryBackend{}
	st, err := backend.Open(ctx,
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithIDGenerator(testutil.NewSequentialIDs("id")),
		store.WithLogger(logging.Discard()),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	def, _, err := st.EnsureDefaultStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("default store: %w", err)
	}

	r := &runner{st: st, storeID: def.ID, result: NewResult()}
	if err := r.setup(ctx, scenario); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		r.step(ctx, i, step)
	}

	state, err := r.capture(ctx)
	if err != nil {
		return nil, err
	}
	r.result.state = state
	r.result.List = state.rendered

	for _, e := range EvaluateAssertions(r.result, scenario.Assertions) {
		r.result.AddError(e.Error())
	}
	return r.result, nil
}

// setup applies the layout, seeds the catalog and builds the reconciler.
func (r *runner) setup(ctx context.Context, s *Scenario) error {
	if len(s.Layout) > 0 {
		l := layout.Layout{Aisles: make([]layout.Aisle, len(s.Layout))}
		for i, a := range s.Layout {
			l.Aisles[i] = layout.Aisle{Name: a.Name, Sections: a.Sections}
		}
		if _, err := layout.Apply(ctx, r.st, r.storeID, l); err != nil {
			return fmt.Errorf("apply layout: %w", err)
		}
	}

	for _, c := range s.Catalog {
		if _, err := r.addItem(ctx, c.Name, c.Aisle, c.Section); err != nil {
			return fmt.Errorf("seed catalog item %q: %w", c.Name, err)
		}
	}

	var categorizer importer.Categorizer = categorize.Names{}
	if len(s.Categorize) > 0 {
		categorizer = fixedCategorizer(s.Categorize)
	}
	r.rec = importer.New(r.st, categorizer,
		importer.WithLogger(logging.Discard()),
		// One worker keeps categorizer calls in input order.
		importer.WithConcurrency(1),
	)

	list, err := r.st.ActiveList(ctx, r.storeID)
	if err != nil {
		return fmt.Errorf("active list: %w", err)
	}
	r.listID = list.ID
	return nil
}

// fixedCategorizer places items from a name to "Aisle/Section" map. Names
// are compared normalized; aisles and sections by name, ignoring case.
func fixedCategorizer(places map[string]string) importer.Categorizer {
	byNorm := make(map[string]string, len(places))
	for name, place := range places {
		byNorm[normalize.Name(name)] = place
	}
	return importer.CategorizerFunc(func(_ context.Context, name string, tree model.LayoutTree) (model.Suggestion, error) {
		place, ok := byNorm[normalize.Name(name)]
		if !ok {
			return model.Suggestion{}, nil
		}
		aisleName, sectionName, _ := strings.Cut(place, "/")
		aisleID, sectionID := findPlace(tree, aisleName, sectionName)
		return model.Suggestion{AisleID: aisleID, SectionID: sectionID}, nil
	})
}

// findPlace returns the ids of the named aisle and section. Unknown names
// resolve to "".
func findPlace(tree model.LayoutTree, aisleName, sectionName string) (string, string) {
	for _, a := range tree.Aisles {
		if !normalize.Equal(a.Name, aisleName) {
			continue
		}
		for _, s := range a.Sections {
			if sectionName != "" && normalize.Equal(s.Name, sectionName) {
				return a.ID, s.ID
			}
		}
		return a.ID, ""
	}
	return "", ""
}

// step runs one step and records it. Unexpected failures are recorded on
// the result and the run continues.
func (r *runner) step(ctx context.Context, index int, s Step) {
	args, outcome, err := r.exec(ctx, s)
	if outcome == nil {
		outcome = map[string]any{}
	}

	var serr *store.Error
	switch {
	case err == nil && s.Error != "":
		r.result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got success", index, s.Op, s.Error))
	case err != nil && errors.As(err, &serr):
		outcome["error"] = string(serr.Code)
		if s.Error != string(serr.Code) {
			r.result.AddError(fmt.Sprintf("steps[%d] %s: %v", index, s.Op, err))
		}
	case err != nil:
		outcome["error"] = err.Error()
		r.result.AddError(fmt.Sprintf("steps[%d] %s: %v", index, s.Op, err))
	}

	r.result.record(s.Op, args, outcome)
}

func (r *runner) exec(ctx context.Context, s Step) (map[string]any, map[string]any, error) {
	switch s.Op {
	case OpImport:
		return r.importText(ctx, s)

	case OpAddItem:
		args := placeArgs(s)
		it, err := r.addItem(ctx, s.Item, s.Aisle, s.Section)
		if err != nil {
			return args, nil, err
		}
		return args, map[string]any{"name": it.Name}, nil

	case OpMoveItem:
		args := placeArgs(s)
		it, err := r.st.FindItemByName(ctx, r.storeID, s.Item)
		if err != nil {
			return args, nil, err
		}
		aisleID, sectionID, err := r.resolvePlace(ctx, s.Aisle, s.Section)
		if err != nil {
			return args, nil, err
		}
		_, err = r.st.UpdateItem(ctx, it.ID, model.ItemPatch{
			Aisle:   model.SetRef(aisleID),
			Section: model.SetRef(sectionID),
		})
		return args, nil, err

	case OpCheck, OpUncheck:
		args := map[string]any{"item": s.Item}
		li, err := r.listEntry(ctx, s.Item)
		if err != nil {
			return args, nil, err
		}
		li, err = r.st.SetListItemChecked(ctx, li.ID, s.Op == OpCheck)
		if err != nil {
			return args, nil, err
		}
		return args, map[string]any{"checked": li.IsChecked}, nil

	case OpClearChecked:
		n, err := r.st.ClearCheckedListItems(ctx, r.listID)
		if err != nil {
			return nil, nil, err
		}
		return nil, map[string]any{"removed": n}, nil

	case OpCompleteList:
		if _, err := r.st.CompleteList(ctx, r.listID); err != nil {
			return nil, nil, err
		}
		next, err := r.st.ActiveList(ctx, r.storeID)
		if err != nil {
			return nil, nil, err
		}
		r.listID = next.ID
		return nil, map[string]any{"next_list": next.Title}, nil

	case OpReorderAisles:
		args := map[string]any{"aisles": strings.Join(s.Aisles, ", ")}
		ids := make([]string, len(s.Aisles))
		for i, name := range s.Aisles {
			a, err := r.aisleByName(ctx, name)
			if err != nil {
				return args, nil, err
			}
			ids[i] = a.ID
		}
		return args, nil, r.st.ReorderAisles(ctx, r.storeID, model.Positions(ids))

	case OpDeleteAisle:
		args := map[string]any{"aisle": s.Aisle}
		a, err := r.aisleByName(ctx, s.Aisle)
		if err != nil {
			return args, nil, err
		}
		return args, nil, r.st.DeleteAisle(ctx, a.ID)

	case OpDeleteSection:
		args := placeArgs(s)
		_, sectionID, err := r.resolvePlace(ctx, s.Aisle, s.Section)
		if err != nil {
			return args, nil, err
		}
		if sectionID == "" {
			return args, nil, store.NotFound("section", s.Section)
		}
		return args, nil, r.st.DeleteSection(ctx, sectionID)

	case OpDeleteItem:
		args := map[string]any{"item": s.Item}
		it, err := r.st.FindItemByName(ctx, r.storeID, s.Item)
		if err != nil {
			return args, nil, err
		}
		return args, nil, r.st.DeleteItem(ctx, it.ID)
	}
	return nil, nil, fmt.Errorf("unknown op %q", s.Op)
}

func placeArgs(s Step) map[string]any {
	args := map[string]any{}
	if s.Item != "" {
		args["item"] = s.Item
	}
	if s.Aisle != "" {
		args["aisle"] = s.Aisle
	}
	if s.Section != "" {
		args["section"] = s.Section
	}
	return args
}

// importText parses step text and imports it onto the current list, then
// checks the step's expected counts.
func (r *runner) importText(ctx context.Context, s Step) (map[string]any, map[string]any, error) {
	items, err := parse.Text{}.Parse(ctx, importer.Input{Text: s.Text})
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	args := map[string]any{"items": strings.Join(names, ", ")}

	res, err := r.rec.Import(ctx, importer.Request{StoreID: r.storeID, ListID: r.listID, Items: items})
	if err != nil {
		return args, nil, err
	}

	created := make([]string, len(res.CreatedItems))
	for i, it := range res.CreatedItems {
		created[i] = it.Name
	}
	outcome := map[string]any{
		"succeeded":   res.Succeeded,
		"failed":      res.Failed,
		"created":     strings.Join(created, ", "),
		"categorized": res.Categorized,
	}

	if e := s.Expect; e != nil {
		check := func(field string, want *int, got int) {
			if want != nil && *want != got {
				r.result.AddError(fmt.Sprintf("import %s: expected %d, got %d", field, *want, got))
			}
		}
		check("succeeded", e.Succeeded, res.Succeeded)
		check("failed", e.Failed, res.Failed)
		check("created", e.Created, len(res.CreatedItems))
		check("categorized", e.Categorized, res.Categorized)
	}
	return args, outcome, nil
}

// addItem creates a catalog item placed by aisle and section name.
func (r *runner) addItem(ctx context.Context, name, aisle, section string) (model.Item, error) {
	aisleID, sectionID, err := r.resolvePlace(ctx, aisle, section)
	if err != nil {
		return model.Item{}, err
	}
	in := model.NewItem{StoreID: r.storeID, Name: name}
	if aisleID != "" {
		in.AisleID = &aisleID
	}
	if sectionID != "" {
		in.SectionID = &sectionID
	}
	return r.st.CreateItem(ctx, in)
}

// resolvePlace maps aisle and section names to ids. Empty names resolve to
// "", unknown names to NotFound.
func (r *runner) resolvePlace(ctx context.Context, aisle, section string) (string, string, error) {
	if aisle == "" {
		return "", "", nil
	}
	tree, err := r.st.LayoutTree(ctx, r.storeID)
	if err != nil {
		return "", "", err
	}
	aisleID, sectionID := findPlace(tree, aisle, section)
	if aisleID == "" {
		return "", "", store.NotFound("aisle", aisle)
	}
	if section != "" && sectionID == "" {
		return "", "", store.NotFound("section", section)
	}
	return aisleID, sectionID, nil
}

func (r *runner) aisleByName(ctx context.Context, name string) (model.Aisle, error) {
	aisles, err := r.st.ListAisles(ctx, r.storeID)
	if err != nil {
		return model.Aisle{}, err
	}
	for _, a := range aisles {
		if normalize.Equal(a.Name, name) {
			return a, nil
		}
	}
	return model.Aisle{}, store.NotFound("aisle", name)
}

// listEntry finds an entry on the current list by normalized name.
func (r *runner) listEntry(ctx context.Context, name string) (model.ListItem, error) {
	entries, err := r.st.ListListItems(ctx, r.listID)
	if err != nil {
		return model.ListItem{}, err
	}
	norm := normalize.Name(name)
	for _, li := range entries {
		if li.NameNorm == norm {
			return li, nil
		}
	}
	return model.ListItem{}, store.NotFound("list item", name)
}

// finalState is what assertions inspect once the steps have run.
type finalState struct {
	tree     model.LayoutTree
	sections int
	items    []model.Item
	entries  []model.ListItem

	// order is the entry names in rendered order.
	order    []string
	rendered string
}

func (r *runner) capture(ctx context.Context) (*finalState, error) {
	var (
		fs  finalState
		err error
	)
	if fs.tree, err = r.st.LayoutTree(ctx, r.storeID); err != nil {
		return nil, err
	}
	for _, a := range fs.tree.Aisles {
		fs.sections += len(a.Sections)
	}
	if fs.items, err = r.st.ListItems(ctx, r.storeID); err != nil {
		return nil, err
	}
	if fs.entries, err = r.st.ListListItems(ctx, r.listID); err != nil {
		return nil, err
	}

	view := views.NewListView(r.st, r.st.Bus(), r.listID)
	defer view.Close()
	groups, err := view.Groups(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		for _, s := range g.Sections {
			for _, li := range s.Items {
				fs.order = append(fs.order, li.Name)
			}
		}
	}
	if fs.rendered, err = view.Render(ctx); err != nil {
		return nil, err
	}
	return &fs, nil
}
