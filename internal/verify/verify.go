// Package verify sends the fingerprint verification request from inside
// the loaded page and parses the reply.
//
// The request is issued with the page's own fetch so it carries the
// page's origin, cookies and browser network stack. Everything the script
// needs is embedded as a JSON literal; nothing is read from the page.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/fpprobe/internal/model"
)

// ErrRequestFailed is returned when the in-page request did not produce a
// response, e.g. a network error or a thrown script exception.
var ErrRequestFailed = errors.New("verification request failed")

// Evaluator runs a script in the page and decodes its awaited result.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, out any) error
}

// Reply is what the in-page script resolves to.
type Reply struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// request is embedded into the script.
type request struct {
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
	Payload  []string          `json:"payload"`
}

// Client issues the verification request. It makes a single attempt.
type Client struct {
	req    request
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client posting payload to endpoint with headers.
func NewClient(endpoint string, headers map[string]string, payload []string, opts ...Option) *Client {
	c := &Client{req: request{Endpoint: endpoint, Headers: headers, Payload: payload}}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Script returns the JavaScript expression that performs the request.
// It evaluates to a promise of Reply.
func (c *Client) Script() (string, error) {
	literal, err := json.Marshal(c.req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	return fmt.Sprintf(`(async () => {
	const req = %s;
	const res = await fetch(req.endpoint, {
		method: "POST",
		headers: req.headers,
		body: JSON.stringify(req.payload),
	});
	return { status: res.status, body: await res.text() };
})()`, literal), nil
}

// Verify runs the request in the page and parses the reply.
// The HTTP status is not checked; only the body decides success.
func (c *Client) Verify(ctx context.Context, page Evaluator) (*model.VerificationResponse, error) {
	script, err := c.Script()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending verification request", "endpoint", c.req.Endpoint, "payload", c.req.Payload)

	var reply Reply
	if err := page.Evaluate(ctx, script, &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	c.logger.Debug("verification response received", "status", reply.Status, "bytes", len(reply.Body))

	resp, err := model.ParseVerificationResponse([]byte(reply.Body))
	if err != nil {
		return nil, fmt.Errorf("status %d: %w", reply.Status, err)
	}
	return resp, nil
}
