package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kirillkom/medintake/internal/infrastructure/resilience"
)

func (c *Client) postJSON(ctx context.Context, operation, path string, payload any, out any) error {
	raw, err := c.postRaw(ctx, operation, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode openai %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) postRaw(ctx context.Context, operation, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal openai %s request: %w", operation, err)
	}

	var out []byte
	call := func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("openai %s rate limit wait: %w", operation, err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create openai %s request: %w", operation, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("openai %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return resilience.NewHTTPStatusError("openai", operation, resp)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read openai %s response: %w", operation, err)
		}
		out = data
		return nil
	}

	if err := c.executor.Execute(ctx, resilience.TargetProvider, "openai."+operation, call, resilience.ClassifyHTTPError); err != nil {
		return nil, err
	}
	return out, nil
}
