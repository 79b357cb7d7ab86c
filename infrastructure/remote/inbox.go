package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"secondbrain-backend/domain/memory"
	pkgerrors "secondbrain-backend/pkg/errors"
)

// InboxClient talks to /api/shared-clips. No circuit breaker here: the
// inbox is polled on a slow ticker, so a flapping backend costs one request
// per tick at worst.
type InboxClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewInboxClient creates an inbox client for the given backend base URL
func NewInboxClient(baseURL string, logger *zap.Logger) *InboxClient {
	return &InboxClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// List returns all pending clips
func (c *InboxClient) List(ctx context.Context) ([]memory.SharedClip, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/shared-clips", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("inbox list failed").WithCause(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.NewNetworkError(
			fmt.Sprintf("inbox list returned status %d", resp.StatusCode))
	}

	var clips []memory.SharedClip
	if err := json.NewDecoder(resp.Body).Decode(&clips); err != nil {
		return nil, pkgerrors.NewNetworkError("inbox list returned malformed JSON").WithCause(err)
	}
	return clips, nil
}

// appendRequest is the wire shape of a share capture
type appendRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
}

// Append queues one clip
func (c *InboxClient) Append(ctx context.Context, clipURL, title, text string) (memory.SharedClip, error) {
	body, err := json.Marshal(appendRequest{URL: clipURL, Title: title, Text: text})
	if err != nil {
		return memory.SharedClip{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/shared-clips", bytes.NewReader(body))
	if err != nil {
		return memory.SharedClip{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return memory.SharedClip{}, pkgerrors.NewNetworkError("inbox append failed").WithCause(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return memory.SharedClip{}, pkgerrors.NewNetworkError(
			fmt.Sprintf("inbox append returned status %d", resp.StatusCode))
	}

	var clip memory.SharedClip
	if err := json.NewDecoder(resp.Body).Decode(&clip); err != nil {
		return memory.SharedClip{}, pkgerrors.NewNetworkError("inbox append returned malformed JSON").WithCause(err)
	}
	return clip, nil
}

// Delete removes one clip. 404 and 410 count as success: the clip is gone,
// which is all the drain protocol needs.
func (c *InboxClient) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/shared-clips/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.NewNetworkError("inbox delete failed").WithCause(err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound, http.StatusGone:
		return nil
	default:
		return pkgerrors.NewNetworkError(
			fmt.Sprintf("inbox delete returned status %d", resp.StatusCode))
	}
}
