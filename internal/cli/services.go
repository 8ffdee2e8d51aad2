package cli

import (
	"context"
	"fmt"

	"github.com/roach88/cartkeeper/internal/categorize"
	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/parse"
	"github.com/roach88/cartkeeper/internal/secrets"
	"github.com/roach88/cartkeeper/internal/store"
)

// gemini builds the Gemini adapter from configuration. The API key comes
// from the secrets store, falling back to the configured environment
// variable.
func (o *RootOptions) gemini(ctx context.Context) (*categorize.Gemini, error) {
	c := o.cfg.Categorizer
	key, err := secrets.Lookup(ctx, o.secrets, c.APIKeySecret, c.APIKeyEnv)
	if err != nil {
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("Gemini API key not found; run 'cartkeeper secret set %s' or set %s", c.APIKeySecret, c.APIKeyEnv), err)
	}
	g, err := categorize.NewGemini(ctx, categorize.GeminiConfig{
		APIKey:  key,
		Model:   c.Model,
		Timeout: c.Timeout,
	}, o.logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up Gemini", err)
	}
	return g, nil
}

// categorizer returns the configured categorizer. The gemini provider tries
// the store's own layout names first and asks the model only when they do
// not match.
func (o *RootOptions) categorizer(ctx context.Context) (importer.Categorizer, error) {
	switch o.cfg.Categorizer.Provider {
	case "none":
		return importer.NoCategorizer, nil
	case "gemini":
		g, err := o.gemini(ctx)
		if err != nil {
			return nil, err
		}
		return categorize.Chain{categorize.Names{}, g}, nil
	default:
		return categorize.Names{}, nil
	}
}

// parser returns the parser named by name, or the configured one when name
// is empty.
func (o *RootOptions) parser(ctx context.Context, name string) (importer.Parser, error) {
	if name == "" {
		name = o.cfg.Import.Parser
	}
	switch name {
	case "text":
		return parse.Text{}, nil
	case "yaml":
		return parse.YAML{}, nil
	case "gemini":
		g, err := o.gemini(ctx)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown parser %q (want text, yaml or gemini)", name))
	}
}

// reconciler builds the bulk importer over st.
func (o *RootOptions) reconciler(ctx context.Context, st *store.Store) (*importer.Reconciler, error) {
	cat, err := o.categorizer(ctx)
	if err != nil {
		return nil, err
	}
	return importer.New(st, cat,
		importer.WithLogger(o.logger),
		importer.WithConcurrency(o.cfg.Import.Concurrency),
	), nil
}
