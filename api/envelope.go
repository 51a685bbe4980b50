package api

import (
	"encoding/json"
)

// Envelope is the response body shape the backend uses for both success and
// validation payloads: { data, message?, errors?, success? }. Some endpoints
// (login, the current-user fetch) return their payload at the top level
// instead; DecodeInto covers both.
type Envelope struct {
	Data    json.RawMessage     `json:"data"`
	Message *string             `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Success *bool               `json:"success,omitempty"`

	raw json.RawMessage
}

// Decode unmarshals the envelope's data field into out.
func (e *Envelope) Decode(out any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return &Error{Kind: KindDecode, err: err}
	}
	return nil
}

// DecodeInto unmarshals the data field when present, otherwise the whole
// response body.
func (e *Envelope) DecodeInto(out any) error {
	if len(e.Data) > 0 {
		return e.Decode(out)
	}
	if len(e.raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.raw, out); err != nil {
		return &Error{Kind: KindDecode, err: err}
	}
	return nil
}

func parseEnvelope(body []byte) *Envelope {
	if len(body) == 0 {
		return nil
	}
	env := Envelope{raw: body}
	_ = json.Unmarshal(body, &env) // non-envelope bodies stay raw-only
	return &env
}
