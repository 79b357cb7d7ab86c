package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	pkgerrors "secondbrain-backend/pkg/errors"
)

// EnricherClient talks to the summarization service. The enrichment worker
// treats every error as retry-next-sweep, so this client stays thin: no
// breaker, no retries of its own.
type EnricherClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewEnricherClient creates a client for the given summarization base URL
func NewEnricherClient(baseURL string, logger *zap.Logger) *EnricherClient {
	return &EnricherClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type summarizeRequest struct {
	Transcript string `json:"transcript"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Summarize produces a short summary for a voice transcript
func (c *EnricherClient) Summarize(ctx context.Context, transcript string) (string, error) {
	body, err := json.Marshal(summarizeRequest{Transcript: transcript})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/summarize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.NewNetworkError("summarize call failed").WithCause(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.NewNetworkError(
			fmt.Sprintf("summarize returned status %d", resp.StatusCode))
	}

	var out summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", pkgerrors.NewNetworkError("summarize returned malformed JSON").WithCause(err)
	}
	return out.Summary, nil
}
