package categorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

// ErrClassifierUnavailable is returned when no AI classifier can be built or
// the model gave no usable answer.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// DefaultModelName is the Gemini model used for category fallback.
const DefaultModelName = "gemini-2.5-flash"

// Request carries what the classifier may see of a transaction.
type Request struct {
	Description string
	Merchant    string
	Amount      decimal.Decimal
	Type        domain.TxType
	// Categories is the full list of known category names.
	Categories []string
}

// Classifier maps a transaction to a category name. Implementations may call
// remote services and must honor ctx.
type Classifier interface {
	Classify(ctx context.Context, req Request) (string, error)
}

// BuildPrompt renders the single-answer classification prompt.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Categorize this transaction into one of these categories: ")
	b.WriteString(strings.Join(req.Categories, ", "))
	b.WriteString("\n\nTransaction Details:\n")
	b.WriteString("- Description: " + req.Description + "\n")
	b.WriteString("- Merchant: " + req.Merchant + "\n")
	b.WriteString("- Amount: ₹" + req.Amount.StringFixed(2) + "\n")
	b.WriteString("- Type: " + string(req.Type) + "\n\n")
	b.WriteString("Respond with ONLY the category name from the list above. If none fit perfectly, choose the closest match.")
	return b.String()
}

// GeminiConfig configures the Gemini classifier.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClassifier asks a Gemini model for a category name.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a classifier for the Gemini API. An empty API
// key yields ErrClassifierUnavailable.
func NewGeminiClassifier(ctx context.Context, cfg GeminiConfig) (*GeminiClassifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("NewGeminiClassifier: missing API key: %w", ErrClassifierUnavailable)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClassifier: create genai client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

// Classify sends the prompt and returns the model's cleaned answer.
func (g *GeminiClassifier) Classify(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(req)}},
		},
	}
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GeminiClassifier.Classify: generate content: %w", err)
	}

	answer := cleanModelAnswer(resp.Text())
	if answer == "" {
		return "", fmt.Errorf("GeminiClassifier.Classify: empty response from model: %w", ErrClassifierUnavailable)
	}
	return answer, nil
}

// cleanModelAnswer strips Markdown fences, quotes and trailing punctuation
// and keeps the first non-empty line.
func cleanModelAnswer(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.Trim(s, "`")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "Category:")
		line = strings.Trim(line, " \t\"'`*.")
		if line != "" {
			return line
		}
	}
	return ""
}
