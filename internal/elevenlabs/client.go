// Package elevenlabs talks to the ElevenLabs Conversational AI platform: the
// REST API for signed URLs, agents and conversation analysis, and the
// conversation websocket that carries call audio.
package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"reminderapi/internal/config"
)

const apiKeyHeader = "xi-api-key"

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: status %d: %s", e.StatusCode, e.Body)
}

// Client is the subset of the ElevenLabs REST API the reminder service uses.
type Client interface {
	// SignedURL returns an authenticated websocket URL for a conversation with the agent.
	SignedURL(ctx context.Context, agentID string) (string, error)
	// ConversationAnalysis fetches a finished conversation and flattens its analysis.
	ConversationAnalysis(ctx context.Context, conversationID string) (map[string]string, error)
	// ListAgents returns the raw agents listing.
	ListAgents(ctx context.Context) (json.RawMessage, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a REST client. Requests are traced through otelhttp.
func NewClient(cfg config.ElevenLabsConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("elevenlabs api key is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid elevenlabs base url: %w", err)
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *httpClient) SignedURL(ctx context.Context, agentID string) (string, error) {
	if agentID == "" {
		return "", errors.New("agent id is required")
	}
	q := url.Values{"agent_id": []string{agentID}}
	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := c.getJSON(ctx, "/v1/convai/conversation/get_signed_url?"+q.Encode(), &out); err != nil {
		return "", err
	}
	if out.SignedURL == "" {
		return "", errors.New("elevenlabs: empty signed url")
	}
	return out.SignedURL, nil
}

func (c *httpClient) ConversationAnalysis(ctx context.Context, conversationID string) (map[string]string, error) {
	var details ConversationDetails
	if err := c.getJSON(ctx, "/v1/convai/conversations/"+url.PathEscape(conversationID), &details); err != nil {
		return nil, err
	}
	return ExtractAnalysis(details), nil
}

func (c *httpClient) ListAgents(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.getJSON(ctx, "/v1/convai/agents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode elevenlabs response: %w", err)
	}
	return nil
}
