package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL   = "https://api.chatgrid.io/v2"
	defaultUserAgent = "botlink/0.1"
)

// ErrNotFound reports a 404 from the platform API.
var ErrNotFound = errors.New("platform: resource not found")

// Config controls how the platform REST client behaves.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// Client wraps the platform REST endpoints the dispatch engine needs:
// sending messages, and fetching conversations and organizations.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("platform: token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// SendMessage posts a message to a conversation. Content may be a bare string,
// which is wrapped into a chat message, or a *Message / Message value used
// as-is. A client-side id is assigned when the content carries none.
func (c *Client) SendMessage(ctx context.Context, conversationID string, content any) (*Message, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, errors.New("platform: conversation id required")
	}
	msg, err := BuildMessage(content)
	if err != nil {
		return nil, err
	}
	msg.Conversation = conversationID
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("platform: marshal message: %w", err)
	}
	path := fmt.Sprintf("/conversations/%s/messages", url.PathEscape(conversationID))
	data, err := c.invoke(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return decode[Message](data)
}

// GetConversation fetches the current snapshot of a conversation.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("platform: conversation id required")
	}
	data, err := c.invoke(ctx, http.MethodGet, "/conversations/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decode[Conversation](data)
}

// GetOrganization fetches an organization's full profile.
func (c *Client) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("platform: organization id required")
	}
	data, err := c.invoke(ctx, http.MethodGet, "/organizations/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decode[Organization](data)
}

// BuildMessage normalizes the accepted content shapes into a Message.
func BuildMessage(content any) (*Message, error) {
	switch v := content.(type) {
	case string:
		return &Message{Text: v, Type: TypeChat}, nil
	case *Message:
		if v == nil {
			return nil, errors.New("platform: nil message")
		}
		clone := *v
		if clone.Type == "" {
			clone.Type = TypeChat
		}
		return &clone, nil
	case Message:
		if v.Type == "" {
			v.Type = TypeChat
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("platform: unsupported message content %T", content)
	}
}

func (c *Client) invoke(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("platform: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("platform: read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Warn("platform request failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("platform: %s %s: unexpected status %d: %s",
			method, path, resp.StatusCode, truncate(data, 256))
	}
	return data, nil
}

func decode[T any](data []byte) (*T, error) {
	var out T
	if len(data) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("platform: decode response: %w", err)
	}
	return &out, nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
