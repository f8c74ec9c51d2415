package gemini

import (
	"context"

	"github.com/fwojciec/research"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ research.TokenCounter = (*TokenCounter)(nil)

// DefaultTokenizerModel is the tokenizer used for cost accounting. The
// local tokenizer only ships vocabularies for generation models.
const DefaultTokenizerModel = "gemini-2.0-flash"

// TokenCounter counts tokens offline using the Gemini tokenizer.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, research.Errorf(research.EINVALID, "tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(text, "user"),
	}

	result, err := tc.tok.CountTokens(contents, nil)
	if err != nil {
		return 0, research.Errorf(research.EINTERNAL, "count tokens: %v", err)
	}

	return int(result.TotalTokens), nil
}
