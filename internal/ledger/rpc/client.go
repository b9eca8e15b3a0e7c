// Package rpc implements ledger.Client over a full node's JSON-RPC API.
//
// Each ledger.Client method is one or more JSON-RPC calls:
//
//	GetObject, GetContainerHandle  sui_getObject
//	ListEntries                    suix_getDynamicFields (paged up to pageSize)
//	GetEntryValue                  suix_getDynamicFieldObject
//	QueryCreationEvents            suix_queryEvents (paged up to limit)
//	ListOwnedObjects               suix_getOwnedObjects (paged up to MaxOwnedPages)
//
// Absence reported by the node maps to ledger.ErrNotFound. Every other
// failure (HTTP, JSON-RPC error object, malformed response) is returned
// as-is and is a transport error to the resolver. The client never retries.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds a single HTTP round trip when ClientConfig leaves
// HTTPClient nil.
const DefaultTimeout = 10 * time.Second

// MaxOwnedPages bounds how many pages ListOwnedObjects reads.
const MaxOwnedPages = 20

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// eventPageSize is the node's maximum page size for event queries.
const eventPageSize = 50

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Endpoint is the node's JSON-RPC URL (e.g., "https://fullnode.testnet.sui.io:443").
	Endpoint string
	// Timeout applies when HTTPClient is nil. Zero selects DefaultTimeout.
	Timeout time.Duration
	// HTTPClient is used for all requests. If nil, a client with Timeout is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is a JSON-RPC ledger client. It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	nextID     atomic.Int64
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("rpc: Endpoint is required")
	}
	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("rpc: invalid Endpoint %q: %w", config.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rpc: Endpoint %q must be http or https", config.Endpoint)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   config.Endpoint,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// call performs one JSON-RPC call and decodes its result into out.
func (c *Client) call(ctx context.Context, method string, out any, params ...any) error {
	id := c.nextID.Add(1)
	body, err := json.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("rpc: encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpc: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("rpc: read %s response: %w", method, err)
	}
	c.logger.Debug("rpc call",
		slog.String("method", method),
		slog.Int64("rpc_id", id),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rpc: unexpected %d response to %s: %s", resp.StatusCode, method, truncate(raw, 256))
	}

	var rr response
	if err := json.Unmarshal(raw, &rr); err != nil {
		return fmt.Errorf("rpc: decode %s response: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("rpc: %s: %w", method, rr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("rpc: decode %s result: %w", method, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
