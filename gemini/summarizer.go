package gemini

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/research"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// DefaultSummaryModel summarizes candidates before approval.
const DefaultSummaryModel = "gemini-2.5-flash-lite"

// Default summary prices in USD per token.
var (
	DefaultSummaryInputTokenPrice  = decimal.RequireFromString("0.0000001")
	DefaultSummaryOutputTokenPrice = decimal.RequireFromString("0.0000004")
)

const summaryInstruction = `You are a concise summarization assistant.`

// maxSnippetRunes bounds the snippet sent with each summary request.
const maxSnippetRunes = 2000

// Ensure Summarizer implements research.Summarizer at compile time.
var _ research.Summarizer = (*Summarizer)(nil)

// Summarizer implements research.Summarizer using Google Gemini. Token
// usage is recorded as generation cost.
type Summarizer struct {
	client *genai.Client
	costs  research.CostRecorder

	Model       string
	InputPrice  decimal.Decimal
	OutputPrice decimal.Decimal
}

// NewSummarizer creates a Summarizer. costs may be nil.
func NewSummarizer(client *genai.Client, costs research.CostRecorder) *Summarizer {
	return &Summarizer{
		client:      client,
		costs:       costs,
		Model:       DefaultSummaryModel,
		InputPrice:  DefaultSummaryInputTokenPrice,
		OutputPrice: DefaultSummaryOutputTokenPrice,
	}
}

// Summarize describes c in two or three sentences with respect to query.
func (s *Summarizer) Summarize(ctx context.Context, query string, c research.Candidate) (string, error) {
	if strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Snippet) == "" {
		return "", research.Errorf(research.EINVALID, "candidate %s has nothing to summarize", c.URL)
	}

	temp := float32(0.3)
	result, err := s.client.Models.GenerateContent(ctx, s.Model,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildSummaryPrompt(query, c)}},
		}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: summaryInstruction}}},
			Temperature:       &temp,
			MaxOutputTokens:   150,
		},
	)
	if err != nil {
		return "", classify(ctx, "summarize", err)
	}
	if result == nil {
		return "", research.Errorf(research.EINTERNAL, "gemini returned nil result")
	}
	if err := recordUsage(s.costs, s.Model, s.InputPrice, s.OutputPrice, result.UsageMetadata); err != nil {
		return "", err
	}

	summary := strings.TrimSpace(result.Text())
	if summary == "" {
		return "", research.Errorf(research.ETRANSIENT, "gemini returned an empty summary")
	}
	return summary, nil
}

// BuildSummaryPrompt builds the prompt for one candidate summary.
func BuildSummaryPrompt(query string, c research.Candidate) string {
	snippet := c.Snippet
	if utf8.RuneCountInString(snippet) > maxSnippetRunes {
		snippet = string([]rune(snippet)[:maxSnippetRunes])
	}

	var sb strings.Builder
	sb.WriteString("Summarize this content in 2-3 concise sentences, focusing on its relevance to the query: \"")
	sb.WriteString(query)
	sb.WriteString("\"\n\nTitle: ")
	sb.WriteString(c.Title)
	sb.WriteString("\nContent: ")
	sb.WriteString(snippet)
	return sb.String()
}
