package categorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/roach88/cartkeeper/internal/importer"
	"github.com/roach88/cartkeeper/internal/model"
)

const (
	// DefaultModel is used when GeminiConfig.Model is empty.
	DefaultModel = "gemini-2.5-flash"

	// DefaultTimeout bounds a single model call.
	DefaultTimeout = 20 * time.Second
)

// generator is the slice of *genai.Models this package calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini adapters.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini asks a Gemini model to categorize item names and to read pasted
// lists or photos of lists. It implements importer.Categorizer and
// importer.Parser.
type Gemini struct {
	gen     generator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

var (
	_ importer.Categorizer = (*Gemini)(nil)
	_ importer.Parser      = (*Gemini)(nil)
)

// NewGemini creates a Gemini adapter backed by the Gemini API.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGemini(client.Models, cfg, logger), nil
}

func newGemini(gen generator, cfg GeminiConfig, logger *slog.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{gen: gen, model: cfg.Model, timeout: cfg.Timeout, logger: logger}
}

// Categorize implements importer.Categorizer. The reply is not trusted:
// the importer resolves the returned ids against the tree.
func (g *Gemini) Categorize(ctx context.Context, name string, tree model.LayoutTree) (model.Suggestion, error) {
	if len(tree.Aisles) == 0 {
		return model.Suggestion{}, nil
	}
	text, err := g.generate(ctx, []*genai.Part{genai.NewPartFromText(categorizePrompt(name, tree))})
	if err != nil {
		return model.Suggestion{}, err
	}

	var reply struct {
		AisleID   string `json:"aisle_id"`
		SectionID string `json:"section_id"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &reply); err != nil {
		return model.Suggestion{}, fmt.Errorf("decode categorization for %q: %w", name, err)
	}
	return model.Suggestion{
		AisleID:   strings.TrimSpace(reply.AisleID),
		SectionID: strings.TrimSpace(reply.SectionID),
	}, nil
}

// Parse implements importer.Parser for text, images, or both.
func (g *Gemini) Parse(ctx context.Context, in importer.Input) ([]model.ParsedItem, error) {
	if strings.TrimSpace(in.Text) == "" && len(in.Image) == 0 {
		return nil, errors.New("input has no text or image")
	}

	parts := []*genai.Part{genai.NewPartFromText(parsePrompt)}
	if text := strings.TrimSpace(in.Text); text != "" {
		parts = append(parts, genai.NewPartFromText(text))
	}
	if len(in.Image) > 0 {
		mime := in.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(in.Image, mime))
	}

	text, err := g.generate(ctx, parts)
	if err != nil {
		return nil, err
	}
	var reply struct {
		Items []model.ParsedItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &reply); err != nil {
		return nil, fmt.Errorf("decode parsed items: %w", err)
	}
	items := make([]model.ParsedItem, 0, len(reply.Items))
	for _, it := range reply.Items {
		it.Name = strings.TrimSpace(it.Name)
		it.Unit = strings.TrimSpace(it.Unit)
		it.Notes = strings.TrimSpace(it.Notes)
		items = append(items, it)
	}
	return items, nil
}

func (g *Gemini) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.gen.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}
	g.logger.Debug("gemini call", "model", g.model, "duration_ms", time.Since(start).Milliseconds())

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("Gemini returned no text")
	}
	return text, nil
}

// stripFence removes a ```json ... ``` wrapper some replies carry despite
// the JSON response type.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
