package wizhttp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCookieName is the session cookie written when none is configured.
const DefaultCookieName = "wizard_session"

// CookieSessions tracks wizard instances with an HMAC-signed cookie. The
// cookie value is "<uuid>.<signature>"; a request with a missing or
// tampered cookie gets a fresh instance.
type CookieSessions struct {
	// Name is the cookie name. Defaults to DefaultCookieName.
	Name string

	// Key signs cookie values. Use a stable key across processes so
	// sessions survive restarts and load-balanced deployments.
	Key []byte

	// MaxAge bounds the cookie lifetime. Zero means a browser session
	// cookie.
	MaxAge time.Duration

	// Secure marks the cookie HTTPS-only.
	Secure bool

	// Path defaults to "/".
	Path string
}

// NewCookieSessions returns cookie sessions signing with key.
func NewCookieSessions(key []byte) *CookieSessions {
	return &CookieSessions{Key: key}
}

// Instance returns the verified instance id carried by r, or issues a
// fresh one. issued reports that Set must be called on the response so
// the client keeps the id.
func (s *CookieSessions) Instance(r *http.Request) (id string, issued bool) {
	c, err := r.Cookie(s.name())
	if err == nil {
		if id, ok := s.verify(c.Value); ok {
			return id, false
		}
	}
	return uuid.NewString(), true
}

// Set writes the signed session cookie for id.
func (s *CookieSessions) Set(w http.ResponseWriter, id string) {
	c := &http.Cookie{
		Name:     s.name(),
		Value:    s.sign(id),
		Path:     s.path(),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.MaxAge > 0 {
		c.MaxAge = int(s.MaxAge / time.Second)
	}
	http.SetCookie(w, c)
}

// Clear expires the session cookie. Call it after completion so the next
// visit starts a fresh instance.
func (s *CookieSessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name(),
		Value:    "",
		Path:     s.path(),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *CookieSessions) name() string {
	if s.Name != "" {
		return s.Name
	}
	return DefaultCookieName
}

func (s *CookieSessions) path() string {
	if s.Path != "" {
		return s.Path
	}
	return "/"
}

func (s *CookieSessions) sign(id string) string {
	mac := hmac.New(sha256.New, s.Key)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verify splits a cookie value and checks its signature in constant time.
func (s *CookieSessions) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}

	mac := hmac.New(sha256.New, s.Key)
	mac.Write([]byte(id))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return id, true
}

// randomKey backs the development default when no Sessions are configured.
func randomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}
