package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/event-fanout/internal/api"
	"github.com/notifyhub/event-fanout/internal/caller"
	"github.com/notifyhub/event-fanout/internal/ratelimiter"
	"github.com/notifyhub/event-fanout/internal/repository"
	"github.com/notifyhub/event-fanout/internal/service"
)

// receivedRequest captures one call hitting the fake target endpoint.
type receivedRequest struct {
	Method      string
	ContentType string
	Body        string
}

// newTarget starts a fake downstream endpoint that records every request.
// failFrom sets the zero-based request index from which calls fail with 500.
func newTarget(t *testing.T, failFrom int) (*httptest.Server, func() []receivedRequest) {
	t.Helper()

	var mu sync.Mutex
	var received []receivedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, receivedRequest{
			Method:      r.Method,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		n := len(received)
		mu.Unlock()

		if failFrom >= 0 && n-1 >= failFrom {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"delivered":` + jsonInt(n) + `}`))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []receivedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]receivedRequest(nil), received...)
	}
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newAPI(rateLimit int) http.Handler {
	repo := repository.NewMockDispatchRepository()
	svc := service.NewDispatchService(repo, caller.NewHTTPCaller(5*time.Second), zap.NewNop(), service.MetricHooks{})
	return api.NewRouter(svc, ratelimiter.New(rateLimit), prometheus.NewRegistry(), zap.NewNop())
}

func postDispatch(t *testing.T, h http.Handler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatches", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Dispatch_EndToEnd(t *testing.T) {
	target, calls := newTarget(t, -1)
	h := newAPI(100)

	payload := `{
		"eventRequestUrl": "` + target.URL + `",
		"eventRequestType": "POST",
		"eventRequestHeaders": {},
		"eventRequestData": {"msg": "Hi {{name}}"},
		"eventData": [{"name": "Ann"}, {"name": "Bo"}]
	}`

	rec := postDispatch(t, h, payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got := calls()
	if len(got) != 2 {
		t.Fatalf("target received %d calls, want 2", len(got))
	}
	wantBodies := []string{`{"msg":"Hi Ann"}`, `{"msg":"Hi Bo"}`}
	for i, c := range got {
		if c.Method != "POST" {
			t.Errorf("call %d: method = %s", i, c.Method)
		}
		if c.ContentType != "application/json" {
			t.Errorf("call %d: content-type = %s", i, c.ContentType)
		}
		if c.Body != wantBodies[i] {
			t.Errorf("call %d: body = %s, want %s", i, c.Body, wantBodies[i])
		}
	}

	var out struct {
		Responses []json.RawMessage `json:"responses"`
		Run       struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			Delivered int    `json:"delivered"`
		} `json:"run"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(out.Responses))
	}
	for i, r := range out.Responses {
		want := `{"delivered":` + jsonInt(i+1) + `}`
		if string(r) != want {
			t.Fatalf("response %d = %s, want %s", i, r, want)
		}
	}
	if out.Run.Status != "completed" || out.Run.Delivered != 2 {
		t.Fatalf("run = %+v", out.Run)
	}

	// The run must be retrievable afterwards with its delivery history.
	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/dispatches/"+out.Run.ID, nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get run status = %d", getRec.Code)
	}
}

func TestAPI_Dispatch_TargetFailureAborts(t *testing.T) {
	target, calls := newTarget(t, 1)
	h := newAPI(100)

	payload := `{
		"eventRequestUrl": "` + target.URL + `",
		"eventRequestType": "POST",
		"eventRequestData": {"msg": "Hi {{name}}"},
		"eventData": [{"name": "A"}, {"name": "B"}, {"name": "C"}]
	}`

	rec := postDispatch(t, h, payload)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502; body = %s", rec.Code, rec.Body.String())
	}
	if got := calls(); len(got) != 2 {
		t.Fatalf("target received %d calls, want 2 (no call for the recipient after the failure)", len(got))
	}
}

func TestAPI_Dispatch_ValidationError(t *testing.T) {
	h := newAPI(100)

	rec := postDispatch(t, h, `{"eventRequestType": "POST", "eventRequestData": "x", "eventData": []}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_Dispatch_InvalidJSON(t *testing.T) {
	h := newAPI(100)

	rec := postDispatch(t, h, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAPI_GetRun_NotFound(t *testing.T) {
	h := newAPI(100)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dispatches/unknown-id", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAPI_Dispatch_RateLimited(t *testing.T) {
	target, _ := newTarget(t, -1)
	h := newAPI(1)

	payload := `{
		"eventRequestUrl": "` + target.URL + `",
		"eventRequestType": "POST",
		"eventRequestData": "ping",
		"eventData": [{}]
	}`

	first := postDispatch(t, h, payload)
	if first.Code != http.StatusCreated {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := postDispatch(t, h, payload)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
}

func TestAPI_Health(t *testing.T) {
	h := newAPI(100)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
