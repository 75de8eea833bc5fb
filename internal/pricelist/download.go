package pricelist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Download fetches one price-list file from its presigned URL and
// returns the body for the caller to stream to disk. Transient network
// failures and 5xx responses are retried with the same linear backoff
// as the API calls; other non-200 responses fail immediately since the
// presigned URL is simply wrong or expired.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryStep):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build download request: %w", err)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %s", resp.Status)
			if resp.StatusCode >= http.StatusInternalServerError {
				continue
			}
			return nil, fmt.Errorf("failed to download price list: %w", lastErr)
		}
		return resp.Body, nil
	}
	return nil, fmt.Errorf("failed to download price list after %d attempts: %w", maxRetries+1, lastErr)
}
