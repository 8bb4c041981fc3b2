package caller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notifyhub/event-fanout/internal/domain"
)

// HTTPCaller performs real HTTP calls with a shared client.
// The timeout is injected from config so tests can keep it short.
type HTTPCaller struct {
	httpClient *http.Client
}

func NewHTTPCaller(timeout time.Duration) *HTTPCaller {
	return &HTTPCaller{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Do issues one HTTP request and returns the raw response body.
// A non-2xx status is returned as *domain.ResponseError with the status and
// body preserved; transport failures are wrapped and returned as-is.
func (c *HTTPCaller) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ResponseError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}

// compile-time check that HTTPCaller implements Caller
var _ Caller = (*HTTPCaller)(nil)
