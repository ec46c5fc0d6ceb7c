package apiclient

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeConfig       = "BAD_CALL_CONFIG"
	textCodeAppError     = "APP_ERROR"
	textCodeAuthExpired  = "AUTH_EXPIRED"
	textCodeAccessDenied = "ACCESS_DENIED"
	textCodeHTTPStatus   = "TRANSPORT_HTTP"
	textCodeTimeout      = "TRANSPORT_TIMEOUT"
	textCodeNetwork      = "TRANSPORT_NETWORK"
	textCodeBadEnvelope  = "BAD_ENVELOPE"
)

// ErrSessionExpired is returned when the backend rejects the current
// credential, at either the envelope or the transport layer.
var ErrSessionExpired = goerrors.New("session expired, please sign in again", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccessDenied is returned for application code 403 responses.
var ErrAccessDenied = goerrors.New("you do not have permission to access this resource", goerrors.CategoryAuth).
	WithTextCode(textCodeAccessDenied)

// ErrNotAuthenticated is returned by session operations that need a stored
// credential when none is present.
var ErrNotAuthenticated = goerrors.New("no credential stored", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthExpired).
	WithCode(goerrors.CodeUnauthorized)

// newConfigError marks malformed call construction: never retried, surfaced
// straight to the caller without notification.
func newConfigError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithTextCode(textCodeConfig).
		WithCode(goerrors.CodeBadRequest)
}

// newAppError carries a non-success envelope back to the caller. The message
// is the envelope message so callers observe exactly what the backend said.
func newAppError(code int, msg string) error {
	return goerrors.New(msg, goerrors.CategoryOperation).
		WithTextCode(textCodeAppError).
		WithMetadata(map[string]any{"code": code})
}

func newAuthExpiredError(msg string) error {
	clone := ErrSessionExpired.Clone()
	if clone == nil {
		return ErrSessionExpired
	}
	if msg != "" {
		clone.Message = msg
	}
	clone.Source = ErrSessionExpired
	return clone
}

func newAccessDeniedError(msg string) error {
	clone := ErrAccessDenied.Clone()
	if clone == nil {
		return ErrAccessDenied
	}
	if msg != "" {
		clone.Message = msg
	}
	clone.Source = ErrAccessDenied
	return clone
}

func newHTTPStatusError(status int, msg string) error {
	return goerrors.New(msg, goerrors.CategoryOperation).
		WithTextCode(textCodeHTTPStatus).
		WithMetadata(map[string]any{"status": status})
}

func newTimeoutError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg).
		WithTextCode(textCodeTimeout)
}

func newNetworkError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg).
		WithTextCode(textCodeNetwork)
}

func newBadEnvelopeError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "unable to decode response envelope").
		WithTextCode(textCodeBadEnvelope)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsAuthExpiredError reports whether err is a credential rejection from
// either the envelope or the transport layer.
func IsAuthExpiredError(err error) bool {
	return hasTextCode(err, textCodeAuthExpired)
}

// IsAccessDeniedError reports whether err is an application 403.
func IsAccessDeniedError(err error) bool {
	return hasTextCode(err, textCodeAccessDenied)
}

// IsTimeoutError reports whether err is a timeout-classified transport
// failure.
func IsTimeoutError(err error) bool {
	return hasTextCode(err, textCodeTimeout)
}

// IsNetworkError reports whether err is a network-unreachable transport
// failure.
func IsNetworkError(err error) bool {
	return hasTextCode(err, textCodeNetwork)
}

// IsConfigError reports whether err came from malformed call construction.
func IsConfigError(err error) bool {
	return hasTextCode(err, textCodeConfig)
}
