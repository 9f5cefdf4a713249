// Package auth provides shared-secret bearer token credentials for the relay
// socket and the overlay control API.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// ErrNoToken is returned when neither a token nor a token file is configured.
var ErrNoToken = errors.New("token is required")

// HeaderAuthorization is the header carrying the bearer token.
const HeaderAuthorization = "Authorization"

// QueryToken is the query parameter accepted when a client cannot set headers.
const QueryToken = "token"

// Credentials holds a bearer token.
type Credentials struct {
	Token string
}

// LoadCredentials builds credentials from an inline token or, when token is
// empty, from the first line of tokenPath.
func LoadCredentials(token, tokenPath string) (*Credentials, error) {
	if token != "" {
		return &Credentials{Token: token}, nil
	}
	if tokenPath == "" {
		return nil, ErrNoToken
	}

	tok, err := LoadToken(tokenPath)
	if err != nil {
		return nil, err
	}
	return &Credentials{Token: tok}, nil
}

// LoadToken reads a token file, trimming surrounding whitespace.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	tok := strings.TrimSpace(string(data))
	if i := strings.IndexByte(tok, '\n'); i >= 0 {
		tok = strings.TrimSpace(tok[:i])
	}
	if tok == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return tok, nil
}

// Headers returns the request headers carrying the token.
// Nil credentials produce no headers.
func (c *Credentials) Headers() map[string]string {
	if c == nil || c.Token == "" {
		return nil
	}
	return map[string]string{
		HeaderAuthorization: "Bearer " + c.Token,
	}
}

// Apply sets the token headers on h.
func (c *Credentials) Apply(h http.Header) {
	for k, v := range c.Headers() {
		h.Set(k, v)
	}
}

// Verify reports whether r carries the token, either as a bearer
// Authorization header or as the token query parameter. Nil credentials
// accept every request.
func (c *Credentials) Verify(r *http.Request) bool {
	if c == nil || c.Token == "" {
		return true
	}

	presented := bearerToken(r.Header.Get(HeaderAuthorization))
	if presented == "" {
		presented = r.URL.Query().Get(QueryToken)
	}
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(c.Token)) == 1
}

// bearerToken extracts the token from an "Authorization: Bearer x" value.
func bearerToken(value string) string {
	const prefix = "bearer "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(value[len(prefix):])
}

// Middleware rejects requests that fail Verify with 401.
func (c *Credentials) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Verify(r) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="overlay"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
