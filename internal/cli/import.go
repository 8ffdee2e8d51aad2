package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/model"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Parser string
	List   string
	Image  string
}

// ImportSummary is the reported outcome of an import.
type ImportSummary struct {
	ListID      string           `json:"list_id"`
	Total       int              `json:"total"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	Categorized int              `json:"categorized"`
	Created     []string         `json:"created"`
	Items       []model.ListItem `json:"items"`
	Errors      []string         `json:"errors,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Import many items onto a list at once",
		Long: `Import a batch of items onto a shopping list.

Input is read from the file given, or from stdin when the argument is "-" or
missing. The text parser takes one item per line ("2 kg apples", "milk x2",
"- bread (sourdough)"); the yaml parser takes a list of names or of
{name, quantity, unit, notes} entries; the gemini parser also reads photos
of handwritten lists (--image).

Items not yet in the catalog are created and placed in an aisle and section
by the configured categorizer. Items that fail are reported and the rest
still import.

Exit codes:
  0 - Every item imported
  1 - Some items failed
  2 - Input or configuration error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Parser, "parser", "", "text, yaml or gemini (default from config)")
	cmd.Flags().StringVar(&opts.List, "list", "", "list id (default: active list)")
	cmd.Flags().StringVar(&opts.Image, "image", "", "photo of a list to read (gemini parser)")

	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, args []string) error {
	ctx := cmd.Context()

	var in importer.Input
	if opts.Image != "" {
		data, err := os.ReadFile(opts.Image)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read image", err)
		}
		in.Image = data
		in.MIMEType = http.DetectContentType(data)
		if opts.Parser == "" {
			opts.Parser = "gemini"
		}
	}
	if len(args) == 1 || opts.Image == "" {
		text, err := readInput(cmd, args)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}
		in.Text = text
	}

	parser, err := opts.parser(ctx, opts.Parser)
	if err != nil {
		return err
	}
	st, err := opts.open(ctx)
	if err != nil {
		return err
	}
	s, err := opts.currentStore(ctx, st)
	if err != nil {
		return err
	}
	rec, err := opts.reconciler(ctx, st)
	if err != nil {
		return err
	}

	res, err := rec.ImportFrom(ctx, parser, in, s.ID, opts.List)
	var perr *importer.ParseError
	if errors.As(err, &perr) {
		return WrapExitError(ExitCommandError, "failed to parse input", perr.Err)
	}
	if err != nil {
		return storeError("import failed", err)
	}

	summary := summarize(res)
	if err := opts.formatter(cmd).Emit(summary, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %d of %d item(s) into list %s\n", summary.Succeeded, summary.Total, summary.ListID)
		if len(summary.Created) > 0 {
			fmt.Fprintf(w, "New catalog items: %d (%d placed in an aisle)\n", len(summary.Created), summary.Categorized)
		}
		for _, e := range summary.Errors {
			fmt.Fprintf(w, "  failed: %s\n", e)
		}
	}); err != nil {
		return err
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d item(s) failed to import", summary.Failed))
	}
	return nil
}

// readInput returns the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}

func summarize(res importer.Result) ImportSummary {
	s := ImportSummary{
		ListID:      res.ListID,
		Total:       res.Total,
		Succeeded:   res.Succeeded,
		Failed:      res.Failed,
		Categorized: res.Categorized,
		Created:     make([]string, 0, len(res.CreatedItems)),
		Items:       res.ListItems,
	}
	if s.Items == nil {
		s.Items = []model.ListItem{}
	}
	for _, it := range res.CreatedItems {
		s.Created = append(s.Created, it.Name)
	}
	for _, e := range res.Errors {
		s.Errors = append(s.Errors, e.Error())
	}
	return s
}
