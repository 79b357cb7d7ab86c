// Package remote holds the device-side HTTP clients for the two backend
// protocols: the sync document store and the shared-clip inbox. All calls
// are best-effort from the engine's point of view; errors surface so the
// engine can log and move on, never to crash anything.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"secondbrain-backend/domain/memory"
	pkgerrors "secondbrain-backend/pkg/errors"
)

// Store is the remote document store as seen by the sync engine
type Store interface {
	// Fetch reads the document for a syncId. An unknown syncId yields an
	// empty document, not an error.
	Fetch(ctx context.Context, syncID string) (memory.SyncDocument, error)

	// Replace overwrites the remote document wholly.
	Replace(ctx context.Context, syncID string, doc memory.SyncDocument) error
}

// Inbox is the shared-clip inbox as seen by the sync engine
type Inbox interface {
	List(ctx context.Context) ([]memory.SharedClip, error)
	Append(ctx context.Context, url, title, text string) (memory.SharedClip, error)

	// Delete removes one clip. A clip that is already gone counts as
	// success: some backend variants clear the whole list instead of
	// deleting per key.
	Delete(ctx context.Context, key string) error
}

// StoreClient talks to /api/sync. A circuit breaker sits in front so a
// flapping backend stops consuming debounce cycles; breaker-open errors
// degrade exactly like network errors.
type StoreClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewStoreClient creates a store client for the given backend base URL
func NewStoreClient(baseURL string, logger *zap.Logger) *StoreClient {
	return &StoreClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: newBreaker("remote-store", logger),
		logger:  logger,
	}
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Fetch reads the remote document
func (c *StoreClient) Fetch(ctx context.Context, syncID string) (memory.SyncDocument, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/api/sync?syncId="+url.QueryEscape(syncID), nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer drainAndClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return nil, pkgerrors.NewNetworkError(
				fmt.Sprintf("sync fetch returned status %d", resp.StatusCode))
		}

		var doc memory.SyncDocument
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, pkgerrors.NewNetworkError("sync fetch returned malformed JSON").WithCause(err)
		}
		doc.Normalize()
		return doc, nil
	})
	if err != nil {
		return memory.SyncDocument{}, wrapRemoteErr("fetch", err)
	}
	return result.(memory.SyncDocument), nil
}

// Replace overwrites the remote document
func (c *StoreClient) Replace(ctx context.Context, syncID string, doc memory.SyncDocument) error {
	_, err := c.breaker.Execute(func() (any, error) {
		doc.Normalize()
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/sync?syncId="+url.QueryEscape(syncID), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer drainAndClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return nil, pkgerrors.NewNetworkError(
				fmt.Sprintf("sync push returned status %d", resp.StatusCode))
		}
		return nil, nil
	})
	if err != nil {
		return wrapRemoteErr("push", err)
	}
	return nil
}

func wrapRemoteErr(op string, err error) error {
	if _, ok := err.(*pkgerrors.AppError); ok {
		return err
	}
	return pkgerrors.NewNetworkError(fmt.Sprintf("remote %s failed", op)).WithCause(err)
}

// drainAndClose lets the transport reuse the connection
func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
