package backend

import (
	"encoding/json"
	"fmt"
)

// The backend wraps payloads inconsistently across endpoints: some
// return {data: ...}, some {data: {data: ...}}, some {orders: [...]},
// and the gateway-verify endpoint signals success via either
// status=="success" or success==true depending on the route. Envelope
// absorbs all of those shapes so the rest of the portal only ever sees
// one canonical form.

// Meta is the pagination block some list endpoints attach.
type Meta struct {
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
}

// Envelope is the parsed response body of any backend endpoint.
type Envelope struct {
	Status   string          `json:"status,omitempty"`
	Success  *bool           `json:"success,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Orders   json.RawMessage `json:"orders,omitempty"`
	Meta     *Meta           `json:"meta,omitempty"`
	Amount   float64         `json:"amount,omitempty"`
	Currency string          `json:"currency,omitempty"`

	raw json.RawMessage
}

// ParseEnvelope decodes a response body. An empty body yields an empty
// envelope rather than an error (204-style responses).
func ParseEnvelope(raw []byte) (*Envelope, error) {
	env := &Envelope{raw: raw}
	if len(raw) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return env, err
	}
	return env, nil
}

// OK reports whether the backend indicated success. Either signalling
// convention is accepted; a body with neither field is treated as
// successful because the HTTP status already was.
func (e *Envelope) OK() bool {
	if e == nil {
		return false
	}
	if e.Success != nil {
		return *e.Success
	}
	if e.Status != "" {
		return e.Status == "success" || e.Status == "successful"
	}
	return true
}

// ErrMessage returns the server-supplied error text, falling back to
// the given default.
func (e *Envelope) ErrMessage(fallback string) string {
	if e == nil {
		return fallback
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return fallback
}

// PayloadInto decodes the canonical payload into v. Preference order:
// data, then orders, then the whole body for endpoints that return
// bare objects.
func (e *Envelope) PayloadInto(v any) error {
	payload := e.payload()
	if len(payload) == 0 {
		return fmt.Errorf("response has no payload")
	}
	return json.Unmarshal(payload, v)
}

func (e *Envelope) payload() json.RawMessage {
	if len(e.Data) > 0 {
		return e.Data
	}
	if len(e.Orders) > 0 {
		return e.Orders
	}
	return e.raw
}
