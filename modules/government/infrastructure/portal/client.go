package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httpx"
	"golang.org/x/time/rate"
)

// APIError is a portal-level rejection carried in a 2xx body.
type APIError struct {
	Adapter string
	Code    string
	Msg     string
}

func (e APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s api error: code=%s", e.Adapter, e.Code)
	}
	return fmt.Sprintf("%s api error: code=%s msg=%s", e.Adapter, e.Code, e.Msg)
}

type Config struct {
	Adapter      string
	BaseURL      string
	ClientID     string
	ClientSecret string
	// RatePerSecond throttles calls to the portal; burst is one call.
	RatePerSecond float64
	Timeout       time.Duration
}

// Client talks to one portal through its OAuth client-credentials API.
type Client struct {
	adapter string
	api     *httpx.Client
	tokens  *TokenSource
	limiter *rate.Limiter
}

func NewClient(cfg Config) (*Client, error) {
	adapter := strings.TrimSpace(cfg.Adapter)
	if !types.KnownAdapter(adapter) {
		return nil, fmt.Errorf("government: unknown adapter %q", cfg.Adapter)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%s base_url is required", adapter)
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("%s client credentials are required", adapter)
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}

	api := httpx.New(cfg.BaseURL, cfg.Timeout)
	c := &Client{
		adapter: adapter,
		api:     api,
		tokens:  NewTokenSource(adapter, httpx.New(cfg.BaseURL, cfg.Timeout), cfg.ClientID, cfg.ClientSecret),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
	api.Headers = func(ctx context.Context) (map[string]string, error) {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"Authorization": "Bearer " + tok}, nil
	}
	return c, nil
}

func (c *Client) Name() string     { return c.adapter }
func (c *Client) Configured() bool { return true }

type syncResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Records int    `json:"records"`
}

func (c *Client) do(ctx context.Context, method string, path string, in any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	err := c.api.DoJSON(ctx, method, path, in, out)
	if httpx.IsStatus(err, http.StatusUnauthorized) {
		c.tokens.Invalidate()
	}
	return err
}

func (c *Client) Sync(ctx context.Context, tenantID string) (int, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return 0, errors.New("tenant_id is required")
	}
	var resp syncResponse
	path := "/v1/establishments/" + url.PathEscape(tenantID) + "/sync"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"tenant_id": tenantID}, &resp); err != nil {
		return 0, err
	}
	if resp.Code != "" && resp.Code != "OK" {
		return 0, APIError{Adapter: c.adapter, Code: resp.Code, Msg: resp.Message}
	}
	return resp.Records, nil
}

func (c *Client) Status(ctx context.Context, tenantID string) (map[string]any, error) {
	out := map[string]any{}
	path := "/v1/establishments/" + url.PathEscape(strings.TrimSpace(tenantID)) + "/status"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenSource caches a client-credentials token until shortly before expiry.
type TokenSource struct {
	adapter      string
	api          *httpx.Client
	clientID     string
	clientSecret string
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(adapter string, api *httpx.Client, clientID string, clientSecret string) *TokenSource {
	return &TokenSource{
		adapter:      adapter,
		api:          api,
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		now:          time.Now,
	}
}

func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.now().Before(s.expiresAt.Add(-30*time.Second)) {
		return s.token, nil
	}

	var tr tokenResponse
	err := s.api.DoJSON(ctx, http.MethodPost, "/oauth/token", map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
	}, &tr)
	if err != nil {
		return "", fmt.Errorf("%s token: %w", s.adapter, err)
	}
	if strings.TrimSpace(tr.AccessToken) == "" {
		return "", fmt.Errorf("%s token endpoint returned empty access_token", s.adapter)
	}
	if tr.ExpiresIn <= 0 {
		return "", fmt.Errorf("%s token endpoint returned invalid expires_in", s.adapter)
	}
	s.token = tr.AccessToken
	s.expiresAt = s.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return s.token, nil
}

// Unconfigured stands in for an adapter with no portal settings.
type Unconfigured string

func (u Unconfigured) Name() string     { return string(u) }
func (u Unconfigured) Configured() bool { return false }
func (u Unconfigured) Sync(context.Context, string) (int, error) {
	return 0, fmt.Errorf("%s: %w", string(u), ports.ErrAdapterNotConfigured)
}
func (u Unconfigured) Status(context.Context, string) (map[string]any, error) {
	return map[string]any{"configured": false}, nil
}

// PortalsFromEnv builds one portal per adapter from GOV_<ADAPTER>_URL,
// GOV_<ADAPTER>_CLIENT_ID and GOV_<ADAPTER>_CLIENT_SECRET. Adapters without a
// URL are Unconfigured.
func PortalsFromEnv() (map[string]ports.Portal, error) {
	rps := 2.0
	if v := strings.TrimSpace(os.Getenv("GOV_RATE_PER_SECOND")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid GOV_RATE_PER_SECOND %q", v)
		}
		rps = f
	}

	out := make(map[string]ports.Portal, len(types.Adapters()))
	for _, name := range types.Adapters() {
		prefix := "GOV_" + strings.ToUpper(name) + "_"
		baseURL := strings.TrimSpace(os.Getenv(prefix + "URL"))
		if baseURL == "" {
			out[name] = Unconfigured(name)
			continue
		}
		c, err := NewClient(Config{
			Adapter:       name,
			BaseURL:       baseURL,
			ClientID:      os.Getenv(prefix + "CLIENT_ID"),
			ClientSecret:  os.Getenv(prefix + "CLIENT_SECRET"),
			RatePerSecond: rps,
		})
		if err != nil {
			return nil, err
		}
		out[name] = c
	}
	return out, nil
}
