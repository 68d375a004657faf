package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/carebook/carebook/internal/config"
	"github.com/gin-gonic/gin"
)

const (
	DefaultCookieName = "_sid"
	cookiePath        = "/"
)

// Manager reads and writes the auth session cookie. The cookie is HttpOnly
// and SameSite=Lax; Secure follows configuration so local development over
// plain HTTP keeps working.
type Manager struct {
	name   string
	secure bool
}

func NewManager(cfg config.Config) *Manager {
	name := strings.TrimSpace(cfg.AuthCookieName)
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{name: name, secure: cfg.AuthCookieSecure}
}

func (m *Manager) CookieName() string { return m.name }

// ReadToken returns the raw session token carried by the request, if any.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	value, err := c.Cookie(m.name)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(value)
	return token, token != ""
}

// Set writes the session cookie with a max-age derived from the session's
// expiry, so browser and server agree on the lifetime.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	m.write(c, token, maxAge)
}

// Clear expires the session cookie immediately.
func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.name, value, maxAge, cookiePath, "", m.secure, true)
}
