package domain

import (
	"encoding/json"
	"time"
)

// Method is the HTTP method used for every outgoing call of a dispatch.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// RunStatus tracks the lifecycle of a dispatch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// DispatchRequest is the inbound payload describing one fan-out: a single
// endpoint, a body template, and a list of recipient records. The template
// is resolved against each record in order and one HTTP call is made per
// record.
type DispatchRequest struct {
	URL        string            `json:"eventRequestUrl"`
	Method     Method            `json:"eventRequestType"`
	Headers    map[string]string `json:"eventRequestHeaders,omitempty"`
	Body       any               `json:"eventRequestData"`
	Recipients []map[string]any  `json:"eventData"`
}

func (r *DispatchRequest) Validate() error {
	if r.URL == "" {
		return ErrMissingURL
	}
	if !r.Method.IsValid() {
		return ErrInvalidMethod
	}
	if r.Body == nil {
		return ErrMissingTemplate
	}
	if r.Recipients == nil {
		return ErrMissingRecipients
	}
	if len(r.Recipients) > 10000 {
		return ErrTooManyRecipients
	}
	return nil
}

// DispatchRun is the persisted record of one dispatch invocation.
type DispatchRun struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Method         Method     `json:"method"`
	RecipientCount int        `json:"recipient_count"`
	Delivered      int        `json:"delivered"`
	Status         RunStatus  `json:"status"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Delivery is the persisted record of a single outgoing call within a run.
// ResponseBody holds the raw payload returned by the endpoint.
type Delivery struct {
	ID           string          `json:"id"`
	RunID        string          `json:"run_id"`
	Position     int             `json:"position"`
	ResponseBody json.RawMessage `json:"response_body,omitempty"`
	SentAt       time.Time       `json:"sent_at"`
}

// ListFilter holds query parameters for paginated run listing.
type ListFilter struct {
	Status *RunStatus
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}
