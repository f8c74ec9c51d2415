package gemini

import (
	"context"
	"unicode/utf8"

	"github.com/fwojciec/research"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// DefaultEmbeddingModel embeds chunks and queries.
const DefaultEmbeddingModel = "gemini-embedding-001"

// DefaultEmbeddingTokenPrice is the embedding price in USD per token.
var DefaultEmbeddingTokenPrice = decimal.RequireFromString("0.00000015")

// DefaultTaskType suits comparing queries with passages.
const DefaultTaskType = "SEMANTIC_SIMILARITY"

// Ensure Embedder implements research.EmbeddingProvider at compile time.
var _ research.EmbeddingProvider = (*Embedder)(nil)

// Embedder implements research.EmbeddingProvider using Gemini embeddings.
// The embedding API does not report usage, so billable tokens are counted
// locally.
type Embedder struct {
	client *genai.Client
	tokens research.TokenCounter

	Model      string
	TaskType   string
	TokenPrice decimal.Decimal
}

// NewEmbedder creates an Embedder. When tokens is nil, token counts are
// estimated at four characters per token.
func NewEmbedder(client *genai.Client, tokens research.TokenCounter) *Embedder {
	return &Embedder{
		client:     client,
		tokens:     tokens,
		Model:      DefaultEmbeddingModel,
		TaskType:   DefaultTaskType,
		TokenPrice: DefaultEmbeddingTokenPrice,
	}
}

// Price implements research.EmbeddingProvider.
func (e *Embedder) Price() research.Price {
	return research.Price{Provider: "gemini", Model: e.Model, Unit: "token", PerUnit: e.TokenPrice}
}

// Embed implements research.EmbeddingProvider.
func (e *Embedder) Embed(ctx context.Context, texts []string) (*research.Embedding, error) {
	if len(texts) == 0 {
		return &research.Embedding{}, nil
	}

	units, err := e.countTokens(ctx, texts)
	if err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, "user")
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.Model, contents, &genai.EmbedContentConfig{TaskType: e.TaskType})
	if err != nil {
		return nil, classify(ctx, "embed", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, research.Errorf(research.ETRANSIENT, "gemini returned %d embeddings for %d texts", embeddingCount(resp), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, research.Errorf(research.ETRANSIENT, "gemini returned an empty embedding at %d", i)
		}
		vectors[i] = emb.Values
	}
	return &research.Embedding{Vectors: vectors, Units: units}, nil
}

func (e *Embedder) countTokens(ctx context.Context, texts []string) (int64, error) {
	var total int64
	for _, text := range texts {
		if e.tokens == nil {
			total += int64((utf8.RuneCountInString(text) + 3) / 4)
			continue
		}
		n, err := e.tokens.CountTokens(ctx, text)
		if err != nil {
			return 0, research.Errorf(research.EINTERNAL, "count tokens: %v", err)
		}
		total += int64(n)
	}
	return total, nil
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}
