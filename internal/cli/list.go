package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
	"github.com/roach88/cartkeeper/internal/store"
	"github.com/roach88/cartkeeper/internal/views"
)

// ListOptions holds flags for the list commands.
type ListOptions struct {
	*RootOptions
	List  string // list id; empty means the store's active list
	Qty   float64
	Unit  string
	Notes string
}

// listView is the JSON form of list show.
type listView struct {
	List  model.ShoppingList `json:"list"`
	Items []model.ListItem   `json:"items"`
}

// NewListCommand creates the list command group.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Work with shopping lists",
		Long: `Work with the shopping lists of the current store.

Commands act on the active list (the newest one not yet completed, created
on demand) unless --list names another. Entries may be given by id or by
name.

Examples:
  cartkeeper list add milk --qty 2 --unit l
  cartkeeper list show
  cartkeeper list check milk
  cartkeeper list clear`,
	}
	cmd.PersistentFlags().StringVar(&opts.List, "list", "", "list id (default: active list)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show a list in store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, list, err := opts.target(ctx)
			if err != nil {
				return err
			}
			f := opts.formatter(cmd)
			if f.Format == "json" {
				items, err := st.ListListItems(ctx, list.ID)
				if err != nil {
					return storeError("failed to load list", err)
				}
				return f.Success(listView{List: list, Items: items})
			}

			view := views.NewListView(st, st.Bus(), list.ID)
			defer view.Close()
			out, err := view.Render(ctx)
			if err != nil {
				return storeError("failed to load list", err)
			}
			fmt.Fprintf(f.Writer, "%s\n\n", list.Title)
			if out == "" {
				fmt.Fprintln(f.Writer, "(empty)")
				return nil
			}
			fmt.Fprint(f.Writer, out)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "List the store's shopping lists, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			lists, err := st.ListLists(ctx, s.ID)
			if err != nil {
				return storeError("failed to list lists", err)
			}
			return opts.formatter(cmd).Emit(lists, func(w io.Writer) {
				for _, l := range lists {
					status := "open"
					if l.Completed() {
						status = "done"
					}
					fmt.Fprintf(w, "%s  %-4s  %s\n", l.ID, status, l.Title)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "new [title]",
		Short: "Start a new list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			s, err := opts.currentStore(ctx, st)
			if err != nil {
				return err
			}
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			l, err := st.CreateList(ctx, s.ID, title)
			if err != nil {
				return storeError("failed to create list", err)
			}
			return emitList(opts.RootOptions, cmd, l, "Created")
		},
	})

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item to the list, creating the catalog item if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, list, err := opts.target(ctx)
			if err != nil {
				return err
			}
			rec, err := opts.reconciler(ctx, st)
			if err != nil {
				return err
			}
			item := model.ParsedItem{Name: args[0], Unit: opts.Unit, Notes: opts.Notes}
			if cmd.Flags().Changed("qty") {
				item.Quantity = &opts.Qty
			}
			res, err := rec.Import(ctx, importer.Request{
				StoreID: list.StoreID,
				ListID:  list.ID,
				Items:   []model.ParsedItem{item},
			})
			if err != nil {
				return storeError("failed to add item", err)
			}
			if len(res.Errors) > 0 {
				return storeError("failed to add item", res.Errors[0].Err)
			}
			li := res.ListItems[0]
			return opts.formatter(cmd).Emit(li, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s\n", views.FormatListItem(li))
			})
		},
	}
	add.Flags().Float64Var(&opts.Qty, "qty", 1, "quantity")
	add.Flags().StringVar(&opts.Unit, "unit", "", "unit (kg, l, pack, ...)")
	add.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	cmd.AddCommand(add)

	for _, c := range []struct {
		use, short string
		checked    bool
	}{
		{"check <entry>", "Check off an entry", true},
		{"uncheck <entry>", "Uncheck an entry", false},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				st, list, err := opts.target(ctx)
				if err != nil {
					return err
				}
				li, err := findListItem(ctx, st, list.ID, args[0])
				if err != nil {
					return storeError("unknown entry", err)
				}
				li, err = st.SetListItemChecked(ctx, li.ID, c.checked)
				if err != nil {
					return storeError("failed to update entry", err)
				}
				return opts.formatter(cmd).Emit(li, func(w io.Writer) {
					fmt.Fprintln(w, views.FormatListItem(li))
				})
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <entry>",
		Short: "Remove an entry from the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, list, err := opts.target(ctx)
			if err != nil {
				return err
			}
			li, err := findListItem(ctx, st, list.ID, args[0])
			if err != nil {
				return storeError("unknown entry", err)
			}
			if err := st.DeleteListItem(ctx, li.ID); err != nil {
				return storeError("failed to remove entry", err)
			}
			return opts.formatter(cmd).Emit(li, func(w io.Writer) {
				fmt.Fprintf(w, "Removed %s\n", li.Name)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every checked entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, list, err := opts.target(ctx)
			if err != nil {
				return err
			}
			n, err := st.ClearCheckedListItems(ctx, list.ID)
			if err != nil {
				return storeError("failed to clear checked entries", err)
			}
			return opts.formatter(cmd).Emit(map[string]int{"cleared": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Cleared %d checked entr%s\n", n, plural(n, "y", "ies"))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "complete",
		Short: "Mark the list as done; the next command starts a fresh active list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, list, err := opts.target(ctx)
			if err != nil {
				return err
			}
			l, err := st.CompleteList(ctx, list.ID)
			if err != nil {
				return storeError("failed to complete list", err)
			}
			return emitList(opts.RootOptions, cmd, l, "Completed")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <title>",
		Short: "Retitle the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, list, err := opts.target(ctx)
			if err != nil {
				return err
			}
			l, err := st.UpdateList(ctx, list.ID, model.ListPatch{Title: &args[0]})
			if err != nil {
				return storeError("failed to rename list", err)
			}
			return emitList(opts.RootOptions, cmd, l, "Renamed")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the list and its entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, list, err := opts.target(ctx)
			if err != nil {
				return err
			}
			if err := st.DeleteList(ctx, list.ID); err != nil {
				return storeError("failed to delete list", err)
			}
			return emitList(opts.RootOptions, cmd, list, "Deleted")
		},
	})

	return cmd
}

// target opens the store and resolves the list the command acts on.
func (o *ListOptions) target(ctx context.Context) (*store.Store, model.ShoppingList, error) {
	st, err := o.open(ctx)
	if err != nil {
		return nil, model.ShoppingList{}, err
	}
	s, err := o.currentStore(ctx, st)
	if err != nil {
		return nil, model.ShoppingList{}, err
	}
	if o.List == "" {
		l, err := st.ActiveList(ctx, s.ID)
		if err != nil {
			return nil, model.ShoppingList{}, storeError("failed to load active list", err)
		}
		return st, l, nil
	}
	l, err := st.GetList(ctx, o.List)
	if err != nil {
		return nil, model.ShoppingList{}, storeError("unknown list", err)
	}
	if l.StoreID != s.ID {
		return nil, model.ShoppingList{}, storeError("unknown list",
			store.ConstraintViolation("list", fmt.Sprintf("list belongs to another store than %q", s.Name), nil))
	}
	return st, l, nil
}

// findListItem accepts an entry id or the name of an entry on listID.
func findListItem(ctx context.Context, st *store.Store, listID, ref string) (model.ListItem, error) {
	items, err := st.ListListItems(ctx, listID)
	if err != nil {
		return model.ListItem{}, err
	}
	for _, li := range items {
		if li.ID == ref {
			return li, nil
		}
	}
	norm := normalize.Name(ref)
	for _, li := range items {
		if li.NameNorm == norm {
			return li, nil
		}
	}
	return model.ListItem{}, store.NotFound("list item", ref)
}

func emitList(opts *RootOptions, cmd *cobra.Command, l model.ShoppingList, verb string) error {
	return opts.formatter(cmd).Emit(l, func(w io.Writer) {
		fmt.Fprintf(w, "%s list %q (%s)\n", verb, l.Title, l.ID)
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
