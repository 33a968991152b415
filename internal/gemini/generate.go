package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Generate produces a text response for the given prompt.
//
// The API is called exactly once per turn: generation failures surface to
// the user as a friendly message and the user re-issues the turn, so an
// automatic retry would only stack latency onto an interactive request.
//
// The returned error is always one of the package sentinels:
//   - ErrTransport: the API call itself failed
//   - ErrSafetyBlocked: the model refused on safety grounds
//   - ErrMalformedResponse: the response carried no extractable text
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(c.cfg.Temperature),
			MaxOutputTokens: c.cfg.MaxTokens,
		})
	if err != nil {
		return "", transportError(err)
	}

	c.logger.Debug("generation call completed", "elapsed", time.Since(start))
	return decodeResponse(resp)
}

// transportError wraps an API call failure in the ErrTransport sentinel,
// preserving the upstream detail for logs.
func transportError(err error) error {
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// decodeResponse extracts text from a generation response, tolerating the
// several shapes the API can return.
//
// Decode order:
//  1. Prompt-level safety block → ErrSafetyBlocked
//  2. Candidate finish reason SAFETY → ErrSafetyBlocked
//  3. SDK text accessor (joins all text parts)
//  4. Manual walk of candidate content parts
//  5. Nothing usable → ErrMalformedResponse
func decodeResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrMalformedResponse
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason == genai.BlockedReasonSafety {
		return "", ErrSafetyBlocked
	}

	for _, cand := range resp.Candidates {
		if cand != nil && cand.FinishReason == genai.FinishReasonSafety {
			return "", ErrSafetyBlocked
		}
	}

	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text, nil
	}

	// The accessor returns empty for some non-standard part layouts.
	// Walk the parts directly before declaring the response malformed.
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}
	if text := strings.TrimSpace(b.String()); text != "" {
		return text, nil
	}

	return "", ErrMalformedResponse
}
