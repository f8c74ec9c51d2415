package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/research"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// DefaultGenerationModel answers questions.
const DefaultGenerationModel = "gemini-2.5-flash"

// Default generation prices in USD per token.
var (
	DefaultInputTokenPrice  = decimal.RequireFromString("0.0000003")
	DefaultOutputTokenPrice = decimal.RequireFromString("0.0000025")
)

const systemInstruction = `You are a research assistant. Answer the question using only the numbered sources provided.
Cite every claim with the number of its source in square brackets, for example [1] or [2,3].
Do not cite numbers that are not in the source list. If the sources do not contain the answer, say so.`

// Ensure Generator implements research.Generator at compile time.
var _ research.Generator = (*Generator)(nil)

// Generator implements research.Generator using Google Gemini. Each call
// records two generation cost events, one for prompt tokens and one for
// output tokens.
type Generator struct {
	client *genai.Client
	costs  research.CostRecorder

	Model       string
	InputPrice  decimal.Decimal
	OutputPrice decimal.Decimal
}

// NewGenerator creates a Generator. costs may be nil.
func NewGenerator(client *genai.Client, costs research.CostRecorder) *Generator {
	return &Generator{
		client:      client,
		costs:       costs,
		Model:       DefaultGenerationModel,
		InputPrice:  DefaultInputTokenPrice,
		OutputPrice: DefaultOutputTokenPrice,
	}
}

// Generate answers question from the numbered sources.
func (g *Generator) Generate(ctx context.Context, question string, sources []research.Source) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", research.Errorf(research.EINVALID, "question required")
	}
	if len(sources) == 0 {
		return "", research.Errorf(research.ENOTFOUND, "no sources to answer from")
	}

	result, err := g.client.Models.GenerateContent(ctx, g.Model,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildUserPrompt(sources, question)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", classify(ctx, "generate", err)
	}
	if result == nil {
		return "", research.Errorf(research.EINTERNAL, "gemini returned nil result")
	}

	if err := g.record(result.UsageMetadata); err != nil {
		return "", err
	}

	answer := strings.TrimSpace(result.Text())
	if answer == "" {
		return "", research.Errorf(research.ETRANSIENT, "gemini returned an empty answer")
	}
	return answer, nil
}

func (g *Generator) record(usage *genai.GenerateContentResponseUsageMetadata) error {
	return recordUsage(g.costs, g.Model, g.InputPrice, g.OutputPrice, usage)
}

// recordUsage records the prompt and output tokens of one generation call.
func recordUsage(costs research.CostRecorder, model string, inPrice, outPrice decimal.Decimal, usage *genai.GenerateContentResponseUsageMetadata) error {
	if costs == nil || usage == nil {
		return nil
	}
	in := research.Price{Provider: "gemini", Model: model, Unit: "input_token", PerUnit: inPrice}
	out := research.Price{Provider: "gemini", Model: model, Unit: "output_token", PerUnit: outPrice}
	if err := costs.Record(research.NewCostEvent(in, research.OperationGeneration, int64(usage.PromptTokenCount))); err != nil {
		return err
	}
	return costs.Record(research.NewCostEvent(out, research.OperationGeneration, int64(usage.CandidatesTokenCount)))
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing the numbered sources
// and the question.
func BuildUserPrompt(sources []research.Source, question string) string {
	block, _ := research.FormatContext(sources, 0)

	var sb strings.Builder
	sb.WriteString("<sources>\n")
	sb.WriteString(block)
	sb.WriteString("\n</sources>\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
