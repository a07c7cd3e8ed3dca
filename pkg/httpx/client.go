package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20

// StatusError is a non-2xx reply after retries are exhausted.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("httpx: status %d: %s", e.StatusCode, strings.TrimSpace(body))
}

func IsStatus(err error, code int) bool {
	se, ok := errors.AsType[*StatusError](err)
	return ok && se.StatusCode == code
}

// Client sends JSON requests to one upstream. Transport errors and 5xx
// replies are retried up to Retries extra times.
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	Headers    func(ctx context.Context) (map[string]string, error)
	Retries    int
	RetryDelay time.Duration
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:       &http.Client{Timeout: timeout},
		Retries:    2,
		RetryDelay: 200 * time.Millisecond,
	}
}

// DoJSON encodes in (when non-nil), sends it and decodes a 2xx reply into out
// (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method string, path string, in any, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpx: encode: %w", err)
		}
		body = b
	}
	headers := map[string]string{}
	if c.Headers != nil {
		h, err := c.Headers(ctx)
		if err != nil {
			return err
		}
		headers = h
	}

	status, respBody, err := c.request(ctx, method, c.BaseURL+path, body, headers)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &StatusError{StatusCode: status, Body: string(respBody)}
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("httpx: decode: %w", err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method string, url string, body []byte, headers map[string]string) (int, []byte, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	retries := max(c.Retries, 0)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.RetryDelay); err != nil {
				return 0, nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Accept", "application/json")
		if len(body) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode >= 500 && attempt < retries {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	return 0, nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
