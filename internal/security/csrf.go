package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
)

const (
	// CSRFFormField is the hidden input every quiz form posts
	CSRFFormField = "csrf_token"
	// CSRFHeader is set by the page script on its background posts
	CSRFHeader = "X-CSRF-Token"
)

// CSRFGenerator derives form tokens from the quiz session ID with HMAC-SHA256.
// Nothing is stored: a token is valid for as long as its session is.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a generator. The key is kept apart from the one
// signing session cookies even when both come from SESSION_SECRET.
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte("csrf:" + secret)}
}

// GenerateToken returns the CSRF token for sessionID, URL-safe so it can sit
// in a data attribute or a header unescaped
func (g *CSRFGenerator) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}
	return base64.RawURLEncoding.EncodeToString(g.sum(sessionID)), nil
}

// ValidateToken reports whether token is the valid CSRF token for sessionID
func (g *CSRFGenerator) ValidateToken(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	got, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(g.sum(sessionID), got)
}

func (g *CSRFGenerator) sum(sessionID string) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

// TokenFromRequest returns the submitted CSRF token, header first
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(CSRFHeader); token != "" {
		return token
	}
	return r.FormValue(CSRFFormField)
}
