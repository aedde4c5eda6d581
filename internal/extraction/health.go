package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const healthPath = "/api/health"

// Health is the service's self-report.
type Health struct {
	Status              string `json:"status" yaml:"status"`
	Message             string `json:"message" yaml:"message"`
	AnthropicConfigured bool   `json:"anthropic_configured" yaml:"anthropic_configured"`
}

// OK reports whether the service declared itself healthy.
func (h *Health) OK() bool { return h != nil && h.Status == "ok" }

// Health queries the health endpoint once.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health endpoint returned HTTP %d", resp.StatusCode)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("parsing health response: %w", err)
	}
	return &h, nil
}

// WaitHealthy polls the health endpoint until it reports status "ok",
// trying at most attempts times with a fixed delay between tries.
func (c *Client) WaitHealthy(ctx context.Context, attempts uint, delay time.Duration) (*Health, error) {
	if attempts == 0 {
		attempts = 1
	}
	var last *Health
	err := retry.Do(
		func() error {
			h, err := c.Health(ctx)
			if err != nil {
				return err
			}
			last = h
			if !h.OK() {
				return fmt.Errorf("service status %q: %s", h.Status, h.Message)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger().Debug("health.retry", "attempt", n+1, "err", err)
		}),
	)
	return last, err
}
