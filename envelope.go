package apiclient

import (
	"encoding/json"
)

// Envelope codes the backend treats as success.
const (
	CodeOK     = 200
	CodeOKZero = 0
)

// Application-level codes that carry extra side effects in the response
// classifier.
const (
	CodeUnauthorized = 401
	CodeForbidden    = 403
)

// Envelope is the uniform wrapper every non-binary response carries.
// Successful calls resolve with the full envelope, not just Data, so the
// message stays available for display.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK reports whether the envelope carries an application-level success.
func (e *Envelope) OK() bool {
	return e.Code == CodeOK || e.Code == CodeOKZero
}

// Decode unmarshals the Data payload into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return newBadEnvelopeError(err)
	}
	return nil
}
