// Package client talks to the public forms API: it fetches form definitions
// and posts completed submissions, translating HTTP outcomes into the error
// taxonomy the widget renders.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/pkg/model"
)

const (
	DefinitionPath  = "/api/public/forms/%s"
	SubmissionsPath = "/api/public/forms/%s/submissions"

	defaultTimeout = 15 * time.Second
	maxResponse    = 1 << 20
)

// Receipt acknowledges an accepted submission.
type Receipt struct {
	ID string `json:"id"`
}

// ErrorPayload is the JSON body the API returns on failure.
type ErrorPayload struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// Client is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
	agent  string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a zap logger; the default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.agent = strings.TrimSpace(agent)
	}
}

// New builds a client rooted at baseURL (scheme and host, optional path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: zap.NewNop(),
		agent:  "formembed",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// GetDefinition fetches a published form definition. 400 and 404 responses
// wrap ErrFormNotFound; transport failures and 5xx responses wrap ErrNetwork.
func (c *Client) GetDefinition(ctx context.Context, formID string) (model.FormDefinition, error) {
	endpoint := c.endpoint(DefinitionPath, formID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return model.FormDefinition{}, err
	}

	switch {
	case status == http.StatusOK:
		var def model.FormDefinition
		if err := json.Unmarshal(body, &def); err != nil {
			return model.FormDefinition{}, &NetworkError{Op: "decode definition", Err: err}
		}
		if def.ID == "" {
			def.ID = formID
		}
		return def, nil
	case status == http.StatusNotFound, status == http.StatusBadRequest, status == http.StatusGone:
		return model.FormDefinition{}, &ResolutionError{Status: status, Message: decodePayload(body).Error}
	default:
		return model.FormDefinition{}, &NetworkError{Op: "fetch definition", Status: status}
	}
}

// Submit posts the complete draft in one request. Validation rejections come
// back as *RejectedError so callers can map messages onto fields.
func (c *Client) Submit(ctx context.Context, formID string, values map[string]any) (Receipt, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return Receipt{}, fmt.Errorf("client: encode submission: %w", err)
	}

	endpoint := c.endpoint(SubmissionsPath, formID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return Receipt{}, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		var receipt Receipt
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &receipt); err != nil {
				return Receipt{}, &NetworkError{Op: "decode receipt", Err: err}
			}
		}
		return receipt, nil
	case status == http.StatusNotFound:
		return Receipt{}, &ResolutionError{Status: status, Message: decodePayload(body).Error}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		p := decodePayload(body)
		return Receipt{}, &RejectedError{Status: status, Message: p.Error, Fields: p.Errors}
	default:
		return Receipt{}, &NetworkError{Op: "submit", Status: status}
	}
}

func (c *Client) endpoint(pattern, formID string) string {
	return strings.TrimRight(c.base.String(), "/") + fmt.Sprintf(pattern, url.PathEscape(formID))
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("forms api request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err),
		)
		return 0, nil, &NetworkError{Op: strings.ToLower(req.Method), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return 0, nil, &NetworkError{Op: "read response", Err: err}
	}
	c.logger.Debug("forms api request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)
	return resp.StatusCode, body, nil
}

func decodePayload(body []byte) ErrorPayload {
	var payload ErrorPayload
	if len(bytes.TrimSpace(body)) == 0 {
		return payload
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ErrorPayload{}
	}
	payload.Error = strings.TrimSpace(payload.Error)
	return payload
}
