package usecases

import (
	"crypto/subtle"
	"strings"
)

// HeaderAPIKey carries the shared secret on webhook requests.
const HeaderAPIKey = "X-API-Key"

// Authentication decision reasons.
const (
	ReasonOK                = "ok"
	ReasonMissingCredential = "missing credential"
	ReasonMismatch          = "mismatch"
)

// AuthDecision is the outcome of checking a request credential.
type AuthDecision struct {
	Accepted bool
	Reason   string
	// Disabled is set when no secret is configured and the request was
	// accepted without a check.
	Disabled bool
}

// Authenticator checks the X-API-Key header against a shared secret.
// The zero secret disables authentication.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator for secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Verify decides on the credential value taken from the request.
func (a *Authenticator) Verify(credential string) AuthDecision {
	if !a.Enabled() {
		return AuthDecision{Accepted: true, Reason: ReasonOK, Disabled: true}
	}
	if credential == "" {
		return AuthDecision{Reason: ReasonMissingCredential}
	}
	if subtle.ConstantTimeCompare([]byte(credential), a.secret) != 1 {
		return AuthDecision{Reason: ReasonMismatch}
	}
	return AuthDecision{Accepted: true, Reason: ReasonOK}
}

// Authenticate looks up X-API-Key case-insensitively in headers and
// verifies it. An exact-case key is preferred over other spellings.
func (a *Authenticator) Authenticate(headers map[string]string) AuthDecision {
	return a.Verify(lookupHeader(headers, HeaderAPIKey))
}

func lookupHeader(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
