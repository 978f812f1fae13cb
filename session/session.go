// Package session ties a browser to the storage that holds its cart.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/cart"
)

// Session is one browser's cart storage. ID is empty when the cart lives
// entirely on the client.
type Session struct {
	ID      string
	Storage cart.Storage
}

// Provider opens the session of the request, creating one if needed.
type Provider interface {
	Open(w http.ResponseWriter, r *http.Request) Session
}

// CookieOptions are the attributes of every cookie the providers write.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite string
}

func (o CookieOptions) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HttpOnly: o.HTTPOnly,
		SameSite: parseSameSite(o.SameSite),
	}
}

func (o CookieOptions) expired() *http.Cookie {
	c := o.cookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// sessionID returns the id carried by the request's session cookie, minting
// and setting a new one when it is absent or not a uuid.
func sessionID(w http.ResponseWriter, r *http.Request, opts CookieOptions) string {
	if c, err := r.Cookie(opts.Name); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, opts.cookie(id))
	return id
}
