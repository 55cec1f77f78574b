// Package client talks to individual server instances over HTTP. Every
// call returns a models.Outcome: transport problems, timeouts and bad
// responses become classified failures instead of errors, so callers
// that fan out over the fleet never have to recover a batch because one
// node misbehaved.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/serverfarm/farmctl/models"
)

// Bodies larger than this are treated as invalid rather than read fully.
const maxBodyBytes = 16 << 20

type Client struct {
	httpClient *http.Client
}

// New returns a client with no client-level timeout; every call is
// bounded by its context instead, so one process can mix deadlines.
func New() *Client {
	return &Client{httpClient: &http.Client{}}
}

// Get performs a GET against url and classifies the result.
func (c *Client) Get(ctx context.Context, url string) models.Outcome {
	return c.do(ctx, http.MethodGet, url)
}

// Post performs a POST with no body; parameters travel in the query
// string, matching the node's simulate-load endpoint.
func (c *Client) Post(ctx context.Context, url string) models.Outcome {
	return c.do(ctx, http.MethodPost, url)
}

func (c *Client) do(ctx context.Context, method, url string) models.Outcome {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return models.Failure(models.FailInvalid, err.Error())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return classifyTransportError(err)
	}
	latency := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.HTTPFailure(resp.StatusCode, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
	if !json.Valid(body) {
		return models.Failure(models.FailInvalid, "response body is not valid JSON")
	}
	return models.Success(json.RawMessage(body), latency)
}

func classifyTransportError(err error) models.Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.Failure(models.FailTimeout, "request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.Failure(models.FailTimeout, "request timed out")
	}
	return models.Failure(models.FailConnection, trimErr(err))
}

// trimErr drops the `Get "http://...": ` prefix url.Error adds; the part
// after the last colon is the part worth reporting per node.
func trimErr(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return msg
}
