// Package webapp implements wicket.Backend against the /api/webapp HTTP
// contract of the support-ticket backend.
package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/fwojciec/wicket"
)

const (
	authPath     = "/api/webapp/auth"
	historyPath  = "/api/webapp/history"
	sendPath     = "/api/webapp/send"
	sendFilePath = "/api/webapp/send_file"
	closePath    = "/api/webapp/close"
)

// TokenHeader carries the session token on every authenticated request.
const TokenHeader = "X-Session-Token"

// Interface compliance check.
var _ wicket.Backend = (*Client)(nil)

// Client talks to the webapp API. No timeouts are configured beyond the
// transport's defaults, and in-flight requests are never cancelled by the
// client itself; cancellation flows through the request context only.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Authenticate exchanges the host identity payload for a session.
func (c *Client) Authenticate(ctx context.Context, initData string) (wicket.Session, error) {
	var resp apiAuthResponse
	if err := c.postJSON(ctx, authPath, "", apiAuthRequest{InitData: initData}, &resp); err != nil {
		return wicket.Session{}, err
	}
	return wicket.Session{Token: resp.Token, ConversationID: resp.ConversationID}, nil
}

// History returns messages with ids strictly greater than after, in the
// order the server returned them.
func (c *Client) History(ctx context.Context, token string, after int64) ([]wicket.Message, error) {
	path := historyPath
	if after > 0 {
		path += "?after=" + strconv.FormatInt(after, 10)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("webapp: %w", err)
	}
	req.Header.Set(TokenHeader, token)

	var resp apiHistoryResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	msgs := make([]wicket.Message, len(resp.Messages))
	for i, m := range resp.Messages {
		msgs[i] = m.toDomain()
	}
	return msgs, nil
}

// Send submits a text-only message.
func (c *Client) Send(ctx context.Context, token, text string) error {
	return c.postJSON(ctx, sendPath, token, apiSendRequest{Text: text}, nil)
}

// SendFile submits one file as multipart form data, with the text as an
// optional accompanying field.
func (c *Client) SendFile(ctx context.Context, token, text string, file wicket.Upload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return fmt.Errorf("webapp: %w", err)
	}
	if _, err := fw.Write(file.Data); err != nil {
		return fmt.Errorf("webapp: %w", err)
	}
	if text != "" {
		if err := w.WriteField("text", text); err != nil {
			return fmt.Errorf("webapp: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("webapp: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendFilePath, &buf)
	if err != nil {
		return fmt.Errorf("webapp: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(TokenHeader, token)
	return c.do(req, nil)
}

// Close asks the backend to resolve the conversation.
func (c *Client) Close(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+closePath, nil)
	if err != nil {
		return fmt.Errorf("webapp: %w", err)
	}
	req.Header.Set(TokenHeader, token)
	return c.do(req, nil)
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webapp: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webapp: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	return c.do(req, out)
}

// do executes the request and decodes the response into out. Failure is
// uniform: a non-2xx status, a body that fails to parse, or an explicit
// ok:false all produce an error carrying the server's message when one
// is provided, otherwise a message derived from the HTTP status.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webapp: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("webapp: read body: %w", err)
	}

	var env apiEnvelope
	envErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if envErr == nil && env.Error != "" {
			return fmt.Errorf("webapp: %s", env.Error)
		}
		return fmt.Errorf("webapp: HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if envErr != nil {
		return fmt.Errorf("webapp: HTTP %d: invalid response body", resp.StatusCode)
	}
	if env.OK != nil && !*env.OK {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return fmt.Errorf("webapp: %s", msg)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("webapp: decode response: %w", err)
		}
	}
	return nil
}
