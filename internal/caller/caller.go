package caller

import (
	"context"
)

// Caller abstracts the single outbound HTTP call made per recipient.
// Mocking this interface in tests gives full control over endpoint behaviour
// without making real HTTP calls.
type Caller interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, error)
}
