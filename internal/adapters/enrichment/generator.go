package enrichment

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"google.golang.org/genai"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
)

const (
	defaultModel       = "gemini-2.5-flash"
	generationTemp     = float32(0.2)
	generationMaxToken = int32(2048)
)

// GenerateInput is what the generator knows about a place.
type GenerateInput struct {
	PlaceID   string
	Summary   string
	Tags      []string
	AvgRating float64
}

// MetadataGenerator produces AI metadata for a place.
type MetadataGenerator interface {
	Generate(ctx context.Context, in GenerateInput) (Metadata, error)
}

// FallbackGenerator always returns FallbackMetadata. It is used when no
// API key is configured.
type FallbackGenerator struct{}

// Generate implements MetadataGenerator.
func (FallbackGenerator) Generate(context.Context, GenerateInput) (Metadata, error) {
	return FallbackMetadata(), nil
}

// contentGenerator is the subset of *genai.Models the generator calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator asks a Gemini model for structured place metadata.
type GeminiGenerator struct {
	models contentGenerator
	model  string
	logger logger.Logger
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiGenerator(client.Models, model), nil
}

func newGeminiGenerator(models contentGenerator, model string) *GeminiGenerator {
	model = strings.TrimPrefix(model, "models/")
	if model == "" {
		model = defaultModel
	}
	return &GeminiGenerator{models: models, model: model, logger: logger.Get().Named("gemini")}
}

// Generate implements MetadataGenerator.
func (g *GeminiGenerator) Generate(ctx context.Context, in GenerateInput) (Metadata, error) {
	temperature := generationTemp
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  generationMaxToken,
		ResponseMIMEType: "application/json",
		ResponseSchema:   metadataSchema(),
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: buildPrompt(in)}},
	}}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %w", ErrGeneration, in.PlaceID, err)
	}
	text := responseText(resp)
	if text == "" {
		return Metadata{}, fmt.Errorf("%w: %s: empty response", ErrGeneration, in.PlaceID)
	}

	var md Metadata
	if err := json.Unmarshal([]byte(stripFences(text)), &md); err != nil {
		g.logger.Debug(ctx, "unparseable model output", logger.String("text", text))
		return Metadata{}, fmt.Errorf("%w: %s: %w", ErrGeneration, in.PlaceID, err)
	}
	return md, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// stripFences removes a surrounding ``` or ```json block.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func buildPrompt(in GenerateInput) string {
	styles := joinValues(place.TravelStyles)
	budgets := joinValues(place.BudgetLevels)
	seasons := joinValues(place.Seasons)
	return fmt.Sprintf(`You are a travel advisor for tourism in Iran. Analyse the place below and return structured JSON metadata.

Place id: %s
Summary: %s
Tags: %s
Average user rating: %.1f/5

If the summary is empty, rely on your own knowledge of the place.
Score suitability from 0.0 (poor) to 1.0 (perfect) for every travel style (%s), budget level (%s) and season (%s).
Suggest a typical visit length in days as duration_days.
Write three short tags and one sentence explaining why someone should visit.`,
		in.PlaceID, in.Summary, strings.Join(in.Tags, ", "), in.AvgRating, styles, budgets, seasons)
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func scoreObject[T ~string](values []T) *genai.Schema {
	props := make(map[string]*genai.Schema, len(values))
	required := make([]string, len(values))
	for i, v := range values {
		props[string(v)] = &genai.Schema{Type: genai.TypeNumber}
		required[i] = string(v)
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func metadataSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"ai_tags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"ai_reasoning_base": {
				Type:        genai.TypeString,
				Description: "One sentence on why the place is worth visiting",
			},
			"duration_days": {
				Type:        genai.TypeNumber,
				Description: "Typical visit length in days",
			},
			"ai_suitability_scores": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"travel_style": scoreObject(place.TravelStyles),
					"budget_level": scoreObject(place.BudgetLevels),
					"season":       scoreObject(place.Seasons),
				},
				Required: []string{"travel_style", "budget_level", "season"},
			},
		},
		Required: []string{"ai_tags", "ai_reasoning_base", "duration_days", "ai_suitability_scores"},
	}
}
