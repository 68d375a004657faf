package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carebook/carebook/internal/config"
	"github.com/gin-gonic/gin"
)

func testContext(cookie string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		c.Request.Header.Set("Cookie", cookie)
	}
	return c, w
}

func TestCookieNameFromConfig(t *testing.T) {
	if got := NewManager(config.Config{}).CookieName(); got != DefaultCookieName {
		t.Fatalf("default cookie name = %q, want %q", got, DefaultCookieName)
	}
	if got := NewManager(config.Config{AuthCookieName: "carebook_session"}).CookieName(); got != "carebook_session" {
		t.Fatalf("configured cookie name = %q, want carebook_session", got)
	}
}

func TestReadTokenRejectsMissingOrBlank(t *testing.T) {
	m := NewManager(config.Config{})

	c, _ := testContext("")
	if _, ok := m.ReadToken(c); ok {
		t.Fatal("expected no token without a cookie")
	}

	c, _ = testContext(DefaultCookieName + "=%20%20")
	if _, ok := m.ReadToken(c); ok {
		t.Fatal("expected no token for a blank cookie value")
	}

	c, _ = testContext(DefaultCookieName + "=tok-123")
	token, ok := m.ReadToken(c)
	if !ok || token != "tok-123" {
		t.Fatalf("ReadToken = %q, %v; want tok-123, true", token, ok)
	}
}

func TestSetWritesHardenedCookie(t *testing.T) {
	m := NewManager(config.Config{AuthCookieSecure: true})

	c, w := testContext("")
	m.Set(c, "tok-123", time.Now().Add(time.Hour))

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != DefaultCookieName || cookie.Value != "tok-123" {
		t.Fatalf("cookie %s=%s, want %s=tok-123", cookie.Name, cookie.Value, DefaultCookieName)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.Path != "/" {
		t.Fatalf("cookie attributes httponly=%v secure=%v path=%q", cookie.HttpOnly, cookie.Secure, cookie.Path)
	}
	if cookie.MaxAge <= 0 || cookie.MaxAge > 3600 {
		t.Fatalf("cookie max-age = %d, want within the session lifetime", cookie.MaxAge)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	m := NewManager(config.Config{})

	c, w := testContext("")
	m.Clear(c)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	if cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("cookie not expired: max-age=%d value=%q", cookies[0].MaxAge, cookies[0].Value)
	}
}
