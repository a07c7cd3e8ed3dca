package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/ai/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httpx"
)

var ErrNotConfigured = errors.New("ai: AI_API_URL is not configured")

// Client calls the external AI service. It implements both Recommender and
// Automator.
type Client struct {
	http *httpx.Client
}

func NewClient(baseURL string, apiKey string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	c := httpx.New(baseURL, timeout)
	key := strings.TrimSpace(apiKey)
	c.Headers = func(context.Context) (map[string]string, error) {
		if key == "" {
			return map[string]string{}, nil
		}
		return map[string]string{"Authorization": "Bearer " + key}, nil
	}
	return &Client{http: c}, nil
}

func NewClientFromEnv() (*Client, error) {
	timeout := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("AI_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ai: invalid AI_TIMEOUT: %w", err)
		}
		timeout = d
	}
	return NewClient(os.Getenv("AI_API_URL"), os.Getenv("AI_API_KEY"), timeout)
}

func (c *Client) call(ctx context.Context, path string, task types.Task) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.http.DoJSON(ctx, http.MethodPost, path, task, &out); err != nil {
		return nil, fmt.Errorf("ai %s: %w", path, err)
	}
	if len(out) == 0 {
		out = json.RawMessage("null")
	}
	return out, nil
}

func (c *Client) Recommend(ctx context.Context, task types.Task) (json.RawMessage, error) {
	return c.call(ctx, "/v1/recommendations", task)
}

func (c *Client) Automate(ctx context.Context, task types.Task) (json.RawMessage, error) {
	return c.call(ctx, "/v1/automation", task)
}

// Offline answers when no AI service is configured, so local and demo
// deployments still serve the ai domain.
type Offline struct{}

func (Offline) Recommend(context.Context, types.Task) (json.RawMessage, error) {
	return json.RawMessage(`{"engine":"offline","recommendations":[]}`), nil
}

func (Offline) Automate(context.Context, types.Task) (json.RawMessage, error) {
	return json.RawMessage(`{"engine":"offline","queued":false}`), nil
}
