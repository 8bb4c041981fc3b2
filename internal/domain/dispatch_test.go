package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/notifyhub/event-fanout/internal/domain"
)

func TestDispatchRequest_Validate(t *testing.T) {
	valid := domain.DispatchRequest{
		URL:        "https://example.com/hook",
		Method:     domain.MethodPost,
		Body:       map[string]any{"msg": "Hi {{name}}"},
		Recipients: []map[string]any{{"name": "Ann"}},
	}

	t.Run("valid request passes", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		r := valid
		r.URL = ""
		if err := r.Validate(); !errors.Is(err, domain.ErrMissingURL) {
			t.Fatalf("expected ErrMissingURL, got %v", err)
		}
	})

	t.Run("invalid method", func(t *testing.T) {
		r := valid
		r.Method = "FETCH"
		if err := r.Validate(); !errors.Is(err, domain.ErrInvalidMethod) {
			t.Fatalf("expected ErrInvalidMethod, got %v", err)
		}
	})

	t.Run("empty method", func(t *testing.T) {
		r := valid
		r.Method = ""
		if err := r.Validate(); !errors.Is(err, domain.ErrInvalidMethod) {
			t.Fatalf("expected ErrInvalidMethod, got %v", err)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		r := valid
		r.Body = nil
		if err := r.Validate(); !errors.Is(err, domain.ErrMissingTemplate) {
			t.Fatalf("expected ErrMissingTemplate, got %v", err)
		}
	})

	t.Run("bare string template passes", func(t *testing.T) {
		r := valid
		r.Body = "Hello {{name}}"
		if err := r.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("missing recipients", func(t *testing.T) {
		r := valid
		r.Recipients = nil
		if err := r.Validate(); !errors.Is(err, domain.ErrMissingRecipients) {
			t.Fatalf("expected ErrMissingRecipients, got %v", err)
		}
	})

	t.Run("empty recipients pass", func(t *testing.T) {
		r := valid
		r.Recipients = []map[string]any{}
		if err := r.Validate(); err != nil {
			t.Fatalf("expected no error for empty list, got %v", err)
		}
	})

	t.Run("all valid methods accepted", func(t *testing.T) {
		for _, m := range []domain.Method{
			domain.MethodGet, domain.MethodPost, domain.MethodPut,
			domain.MethodPatch, domain.MethodDelete,
		} {
			r := valid
			r.Method = m
			if err := r.Validate(); err != nil {
				t.Fatalf("method %q: expected no error, got %v", m, err)
			}
		}
	})
}

func TestDispatchRequest_JSONFieldNames(t *testing.T) {
	payload := `{
		"eventRequestUrl": "https://x/y",
		"eventRequestType": "POST",
		"eventRequestHeaders": {"Authorization": "Bearer t"},
		"eventRequestData": {"msg": "Hi {{name}}"},
		"eventData": [{"name": "Ann"}]
	}`

	var req domain.DispatchRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.URL != "https://x/y" {
		t.Fatalf("url = %q", req.URL)
	}
	if req.Method != domain.MethodPost {
		t.Fatalf("method = %q", req.Method)
	}
	if req.Headers["Authorization"] != "Bearer t" {
		t.Fatalf("headers = %v", req.Headers)
	}
	if len(req.Recipients) != 1 || req.Recipients[0]["name"] != "Ann" {
		t.Fatalf("recipients = %v", req.Recipients)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestResponseError(t *testing.T) {
	err := &domain.ResponseError{StatusCode: 503, Body: []byte("unavailable")}
	if err.Error() != "endpoint returned status 503" {
		t.Fatalf("unexpected message: %s", err.Error())
	}

	var target *domain.ResponseError
	wrapped := errors.Join(errors.New("recipient 2"), err)
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should unwrap ResponseError")
	}
	if string(target.Body) != "unavailable" {
		t.Fatalf("body = %q", target.Body)
	}
}
