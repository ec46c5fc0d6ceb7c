package apiclient

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestStage is a transform applied to every outbound request before
// transport. A stage error rejects the call without retry.
type RequestStage func(req *http.Request) error

// ResponseStage is a transform applied to every decoded envelope before the
// built-in classifier delivers the result. Binary calls skip the response
// pipeline entirely.
type ResponseStage func(resp *http.Response, env *Envelope) error

// bearerStage injects the stored access token as a bearer Authorization
// header. A missing token is not an error: unauthenticated calls go out as-is
// and the server-side rejection is classified on the way back.
func bearerStage(creds CredentialStore) RequestStage {
	return func(req *http.Request) error {
		if creds == nil {
			return nil
		}

		token, err := creds.AccessToken(req.Context())
		if err != nil {
			return err
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// cacheBusterStage appends a nonce query parameter to read calls so repeated
// GETs are never served from an intermediary cache.
func cacheBusterStage() RequestStage {
	return func(req *http.Request) error {
		if req.Method != http.MethodGet {
			return nil
		}

		q := req.URL.Query()
		q.Set("_t", uuid.NewString())
		req.URL.RawQuery = q.Encode()
		return nil
	}
}
