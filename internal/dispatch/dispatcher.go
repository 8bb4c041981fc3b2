package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/event-fanout/internal/caller"
	"github.com/notifyhub/event-fanout/internal/domain"
	"github.com/notifyhub/event-fanout/internal/template"
)

// Hooks carries optional callbacks fired during a dispatch.
// Using a struct keeps the constructor signature clean.
type Hooks struct {
	// OnDelivered fires after each successful call with the recipient index
	// and the raw response body.
	OnDelivered func(index int, body []byte, latency time.Duration)
}

// Dispatcher resolves the body template against each recipient record and
// issues one HTTP call per record, strictly in input order. Calls are never
// concurrent, so result order always matches recipient order.
type Dispatcher struct {
	caller caller.Caller
	logger *zap.Logger
	hooks  Hooks
}

func NewDispatcher(c caller.Caller, logger *zap.Logger, hooks Hooks) *Dispatcher {
	if hooks.OnDelivered == nil {
		hooks.OnDelivered = func(int, []byte, time.Duration) {}
	}
	return &Dispatcher{caller: c, logger: logger, hooks: hooks}
}

// Dispatch validates req, then for each recipient in order resolves the body
// template, issues one HTTP call, and collects the raw response body. The
// default Content-Type: application/json header is applied first so entries
// in req.Headers can override it.
//
// The first failure — template encoding, transport, or a non-2xx response —
// aborts the loop: remaining recipients are not contacted and no partial
// result is returned. An empty recipient list returns an empty result
// without any HTTP call.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.DispatchRequest) ([]json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range req.Headers {
		headers[k] = v
	}

	responses := make([]json.RawMessage, 0, len(req.Recipients))
	for i, record := range req.Recipients {
		body, err := encodeBody(template.Resolve(req.Body, record))
		if err != nil {
			return nil, fmt.Errorf("recipient %d: encode body: %w", i, err)
		}

		start := time.Now()
		resp, err := d.caller.Do(ctx, string(req.Method), req.URL, headers, body)
		if err != nil {
			d.logger.Warn("dispatch aborted",
				zap.Int("recipient_index", i),
				zap.String("url", req.URL),
				zap.Error(err),
			)
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}

		d.hooks.OnDelivered(i, resp, time.Since(start))
		responses = append(responses, resp)
	}

	return responses, nil
}

// encodeBody serialises the resolved template for the wire. A bare string
// template is sent as-is rather than JSON-quoted, matching how the original
// consumer passed string payloads straight through.
func encodeBody(resolved any) ([]byte, error) {
	if s, ok := resolved.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(resolved)
}
