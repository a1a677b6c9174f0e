package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HealthStatus is the result of probing the debate server.
type HealthStatus struct {
	Available    bool          `json:"available"`
	StatusCode   int           `json:"status_code,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
}

// HealthCheckTimeout bounds a single probe.
const HealthCheckTimeout = 10 * time.Second

// Check probes the endpoint without starting a debate. Any HTTP answer below
// 500 counts as available: a debate endpoint usually rejects HEAD with 405.
func (c *Client) Check(ctx context.Context) HealthStatus {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return HealthStatus{
			Error:     err.Error(),
			CheckedAt: time.Now(),
		}
	}

	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return HealthStatus{
			ResponseTime: elapsed,
			Error:        err.Error(),
			CheckedAt:    time.Now(),
		}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	status := HealthStatus{
		Available:    resp.StatusCode < 500,
		StatusCode:   resp.StatusCode,
		ResponseTime: elapsed,
		CheckedAt:    time.Now(),
	}
	if !status.Available {
		status.Error = fmt.Sprintf("server error: %s", resp.Status)
	}
	return status
}
