package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// MaxCookieSize is the largest cookie browsers are required to keep, counted
// over name, value and attributes.
const MaxCookieSize = 4096

// CookieProvider keeps the whole cart in a cookie on the client.
type CookieProvider struct {
	Options CookieOptions
}

func NewCookieProvider(opts CookieOptions) *CookieProvider {
	return &CookieProvider{Options: opts}
}

func (p *CookieProvider) Open(w http.ResponseWriter, r *http.Request) Session {
	return Session{Storage: &CookieStorage{w: w, r: r, opts: p.Options}}
}

// CookieStorage reads the cart from the request and writes it to the
// response. It sets no expiry, so the cookie lasts for the browser session.
type CookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	opts    CookieOptions
	written *string
}

func (s *CookieStorage) Load(ctx context.Context) (string, error) {
	if s.written != nil {
		return *s.written, nil
	}
	c, err := s.r.Cookie(s.opts.Name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

func (s *CookieStorage) Save(ctx context.Context, value string) error {
	c := s.opts.cookie(value)
	if n := len(c.String()); n > MaxCookieSize {
		return fmt.Errorf("cart cookie is %d bytes, limit is %d", n, MaxCookieSize)
	}
	http.SetCookie(s.w, c)
	s.written = &value
	return nil
}

func (s *CookieStorage) Clear(ctx context.Context) error {
	http.SetCookie(s.w, s.opts.expired())
	empty := ""
	s.written = &empty
	return nil
}
