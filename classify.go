package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// CallState is the terminal classification of a single call.
type CallState string

const (
	CallPending        CallState = "pending"
	CallSuccess        CallState = "success"
	CallAppError       CallState = "app_error"
	CallTransportError CallState = "transport_error"
)

const fallbackFailureMessage = "request failed"

// statusMessage maps an HTTP status outside 2xx to its fixed user-facing
// message.
func statusMessage(status int) string {
	switch status {
	case 400:
		return "bad request parameters"
	case 401:
		return "unauthorized, please sign in again"
	case 403:
		return "access denied"
	case 404:
		return "requested resource not found"
	case 408:
		return "request timed out"
	case 500:
		return "internal server error"
	case 501:
		return "service not implemented"
	case 502:
		return "bad gateway"
	case 503:
		return "service unavailable"
	case 504:
		return "gateway timeout"
	case 505:
		return "HTTP version not supported"
	default:
		return fmt.Sprintf("connection error %d", status)
	}
}

// classifyEnvelope resolves the application-level outcome of a call that
// completed at the transport layer. Non-success envelopes emit exactly one
// notification; code 401 additionally runs the acknowledged teardown flow
// and code 403 swaps the generic notification for the access denied one.
func (c *Client) classifyEnvelope(ctx context.Context, env *Envelope) (CallState, error) {
	if env.OK() {
		return CallSuccess, nil
	}

	message := env.Message
	if message == "" {
		message = fallbackFailureMessage
	}

	switch env.Code {
	case CodeUnauthorized:
		c.notifier.Notify(NotifyError, message)
		c.invalidateSession(ctx, true)
		return CallAppError, newAuthExpiredError(env.Message)
	case CodeForbidden:
		c.notifier.Notify(NotifyError, ErrAccessDenied.Message)
		return CallAppError, newAccessDeniedError(env.Message)
	default:
		c.notifier.Notify(NotifyError, message)
		return CallAppError, newAppError(env.Code, message)
	}
}

// classifyStatus handles HTTP statuses outside 2xx. A transport-level 401 is
// a lower-level rejection than the envelope one: teardown is immediate, with
// no confirmation and no server round-trip.
func (c *Client) classifyStatus(ctx context.Context, status int) (CallState, error) {
	message := statusMessage(status)
	c.notifier.Notify(NotifyError, message)

	if status == 401 {
		c.invalidateSession(ctx, false)
		return CallTransportError, newAuthExpiredError(message)
	}

	return CallTransportError, newHTTPStatusError(status, message)
}

// classifyFailure handles calls that never produced a response, splitting
// timeouts from unreachable networks by cause.
func (c *Client) classifyFailure(err error) (CallState, error) {
	message := "network error, please check your connection"
	timeout := false

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) {
		timeout = true
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	} else if strings.Contains(err.Error(), "timeout") {
		timeout = true
	}

	if timeout {
		message = "request timed out"
	}

	c.notifier.Notify(NotifyError, message)

	if timeout {
		return CallTransportError, newTimeoutError(err, message)
	}
	return CallTransportError, newNetworkError(err, message)
}

// invalidateSession is the shared teardown primitive behind both 401 paths.
// The acknowledged flow asks the user first and performs a full logout; the
// immediate flow clears local state only, so it can run from inside the
// transport-error path without recursing into the network.
func (c *Client) invalidateSession(ctx context.Context, acknowledged bool) {
	if c.session == nil {
		return
	}
	if !c.tearingDown.CompareAndSwap(false, true) {
		return
	}
	defer c.tearingDown.Store(false)

	if acknowledged {
		if !c.notifier.Confirm("session expired", ErrSessionExpired.Message) {
			return
		}
		if err := c.session.Logout(ctx); err != nil {
			c.logger.Error("logout after credential rejection: %v", err)
		}
	} else {
		c.session.ResetToken()
	}

	if c.nav != nil {
		c.nav.Push(c.loginRoute)
	}
}
