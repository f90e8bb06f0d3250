package web

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionConfig configures the session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.CookieName == "" {
		c.CookieName = "jspm_sid"
	}
	if c.TTL <= 0 {
		c.TTL = 365 * 24 * time.Hour
	}
	return c
}

// validSessionID reports whether id is a ULID we could have issued.
func validSessionID(id string) bool {
	if len(id) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// sessionFromRequest returns the session id carried by the cookie, or "".
func (c SessionConfig) sessionFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(c.CookieName)
	if err != nil || !validSessionID(cookie.Value) {
		return ""
	}
	return cookie.Value
}

// ensureSession returns the request's session id, issuing a new one and
// setting the cookie when it has none. The cookie is refreshed on every
// page view so active sessions do not expire.
func (c SessionConfig) ensureSession(w http.ResponseWriter, r *http.Request) string {
	id := c.sessionFromRequest(r)
	if id == "" {
		id = ulid.Make().String()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(c.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
