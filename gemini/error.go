package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/fwojciec/research"
	"google.golang.org/genai"
)

// classify maps Gemini API failures to research error codes. Rate limits
// and server errors are ETRANSIENT so callers retry them.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		return research.Errorf(research.ETRANSIENT, "gemini %s: %v", op, err)
	}

	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return research.Errorf(research.ETRANSIENT, "gemini %s: %v", op, err)
	case code == http.StatusNotFound:
		return research.Errorf(research.ENOTFOUND, "gemini %s: %v", op, err)
	default:
		return research.Errorf(research.EINVALID, "gemini %s: %v", op, err)
	}
}
