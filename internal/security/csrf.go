package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
)

// CSRFHeader carries the token on state-changing requests made with a session cookie
const CSRFHeader = "X-CSRF-Token"

var (
	ErrCSRFNoSession = errors.New("csrf: no session cookie")
	ErrCSRFMissing   = errors.New("csrf: token missing")
	ErrCSRFMismatch  = errors.New("csrf: token does not match session")
)

// CSRFTokens issues per-session request tokens for cookie-authenticated
// clients. A token is an HMAC of the session ID under a key derived from the
// configured secret, so any replica can check it and a secret shared with the
// JWT signer never produces the same MAC.
type CSRFTokens struct {
	key []byte
}

// NewCSRFTokens derives the token key from secret
func NewCSRFTokens(secret string) *CSRFTokens {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("signlearn/csrf"))
	return &CSRFTokens{key: mac.Sum(nil)}
}

// Issue returns the token for sessionID
func (c *CSRFTokens) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrCSRFNoSession
	}
	return base64.RawURLEncoding.EncodeToString(c.sum(sessionID)), nil
}

// Check reports why token is not valid for sessionID, or nil if it is
func (c *CSRFTokens) Check(sessionID, token string) error {
	if sessionID == "" {
		return ErrCSRFNoSession
	}
	if token == "" {
		return ErrCSRFMissing
	}
	got, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || !hmac.Equal(got, c.sum(sessionID)) {
		return ErrCSRFMismatch
	}
	return nil
}

// CheckRequest checks the CSRFHeader of r against its session cookie
func (c *CSRFTokens) CheckRequest(r *http.Request) error {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ErrCSRFNoSession
	}
	return c.Check(cookie.Value, r.Header.Get(CSRFHeader))
}

func (c *CSRFTokens) sum(sessionID string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}
