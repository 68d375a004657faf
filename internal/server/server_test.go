package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	apptdomain "github.com/carebook/carebook/internal/appointment/domain"
	authdomain "github.com/carebook/carebook/internal/auth/domain"
	"github.com/carebook/carebook/internal/auth/session"
	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/ratelimit"
	sharingdomain "github.com/carebook/carebook/internal/sharing/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testUserID = snowflake.ID(42)

type fakeAuthService struct {
	loginErr   error
	loginCalls int
}

func (f *fakeAuthService) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.User, error) {
	return &authdomain.User{ID: testUserID, Email: req.Email}, nil
}

func (f *fakeAuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "good-verify" {
		return nil
	}
	return authdomain.ErrTokenNotFound
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &authdomain.LoginResult{
		User:      &authdomain.User{ID: testUserID, Email: req.Email},
		RawToken:  "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	if rawToken != "session-token" {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{UserID: testUserID}, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	return &authdomain.User{ID: id, Email: "user@example.com", EmailVerified: true}, nil
}

type fakeSharingService struct {
	shareErr    error
	redeemErr   error
	lastToken   string
	lastRedeem  snowflake.ID
	lastRequest sharingdomain.ShareAppointmentRequest
}

func (f *fakeSharingService) ShareAppointment(ctx context.Context, req sharingdomain.ShareAppointmentRequest) (*sharingdomain.ShareResult, error) {
	f.lastRequest = req
	if f.shareErr != nil {
		return nil, f.shareErr
	}
	return &sharingdomain.ShareResult{
		Grant: sharingdomain.Grant{ID: 7, Kind: sharingdomain.KindAppointment, Status: sharingdomain.StatusPending},
		Token: "fresh-token",
	}, nil
}

func (f *fakeSharingService) ShareDashboard(ctx context.Context, req sharingdomain.ShareDashboardRequest) (*sharingdomain.ShareResult, error) {
	panic("unimplemented")
}

func (f *fakeSharingService) Redeem(ctx context.Context, token string, redeemerID snowflake.ID) (*sharingdomain.Grant, error) {
	f.lastToken = token
	f.lastRedeem = redeemerID
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}
	return &sharingdomain.Grant{ID: 7, Status: sharingdomain.StatusAccepted, InvitedUserID: &redeemerID}, nil
}

func (f *fakeSharingService) Decline(ctx context.Context, token string, declinerID snowflake.ID) (*sharingdomain.Grant, error) {
	panic("unimplemented")
}

func (f *fakeSharingService) Discard(ctx context.Context, kind sharingdomain.GrantKind, grantID snowflake.ID, actor sharingdomain.InviteeRef) error {
	panic("unimplemented")
}

func (f *fakeSharingService) ListForAppointment(ctx context.Context, appointmentID snowflake.ID, requesterID snowflake.ID) ([]sharingdomain.Grant, error) {
	panic("unimplemented")
}

func (f *fakeSharingService) ListForDashboard(ctx context.Context, ownerID snowflake.ID) ([]sharingdomain.Grant, error) {
	panic("unimplemented")
}

func (f *fakeSharingService) ListForInvitee(ctx context.Context, invitee sharingdomain.InviteeRef) ([]sharingdomain.Grant, error) {
	return []sharingdomain.Grant{}, nil
}

func (f *fakeSharingService) PermissionOnAppointment(ctx context.Context, appointmentID snowflake.ID, actor sharingdomain.InviteeRef) (sharingdomain.Level, error) {
	return sharingdomain.LevelNone, nil
}

func (f *fakeSharingService) PermissionOnDashboard(ctx context.Context, ownerID snowflake.ID, actor sharingdomain.InviteeRef) (sharingdomain.Level, error) {
	return sharingdomain.LevelNone, nil
}

func (f *fakeSharingService) SharedAppointmentIDs(ctx context.Context, actor sharingdomain.InviteeRef) ([]snowflake.ID, error) {
	return nil, nil
}

func (f *fakeSharingService) SharedDashboardOwners(ctx context.Context, actor sharingdomain.InviteeRef) ([]snowflake.ID, error) {
	return nil, nil
}

type fakeAppointmentService struct {
	activities []string
}

func (f *fakeAppointmentService) Create(ctx context.Context, req apptdomain.CreateRequest) (*apptdomain.Appointment, error) {
	panic("unimplemented")
}

func (f *fakeAppointmentService) Get(ctx context.Context, id snowflake.ID, actor sharingdomain.InviteeRef) (*apptdomain.Appointment, error) {
	return nil, apptdomain.ErrAppointmentNotFound
}

func (f *fakeAppointmentService) Update(ctx context.Context, id snowflake.ID, req apptdomain.UpdateRequest, actor sharingdomain.InviteeRef) (*apptdomain.Appointment, error) {
	panic("unimplemented")
}

func (f *fakeAppointmentService) UpdateStatus(ctx context.Context, id snowflake.ID, status apptdomain.Status, actor sharingdomain.InviteeRef) (*apptdomain.Appointment, error) {
	panic("unimplemented")
}

func (f *fakeAppointmentService) Delete(ctx context.Context, id snowflake.ID, actor sharingdomain.InviteeRef) error {
	panic("unimplemented")
}

func (f *fakeAppointmentService) ListRange(ctx context.Context, actor sharingdomain.InviteeRef, q apptdomain.RangeQuery) ([]apptdomain.Appointment, error) {
	return []apptdomain.Appointment{}, nil
}

func (f *fakeAppointmentService) ListActivities(ctx context.Context, id snowflake.ID, actor sharingdomain.InviteeRef) ([]apptdomain.Activity, error) {
	panic("unimplemented")
}

func (f *fakeAppointmentService) RecordActivity(ctx context.Context, appointmentID, actorID snowflake.ID, action, detail string) error {
	f.activities = append(f.activities, action)
	return nil
}

type serverFixture struct {
	srv     *Server
	auth    *fakeAuthService
	sharing *fakeSharingService
	appts   *fakeAppointmentService
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{BaseURL: "http://localhost:8080"}
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	auth := &fakeAuthService{}
	sharingSvc := &fakeSharingService{}
	appts := &fakeAppointmentService{}

	s := &Server{
		engine:         engine,
		cfg:            cfg,
		log:            zap.NewNop(),
		authsvc:        auth,
		sessions:       session.NewManager(cfg),
		appointmentSvc: appts,
		sharingSvc:     sharingSvc,
		limiter:        ratelimit.NewMemoryLimiter(),
	}
	s.registerAuthRoutes()
	s.registerInvitationRoutes()
	s.registerAPIRoutes()

	return &serverFixture{srv: s, auth: auth, sharing: sharingSvc, appts: appts}
}

func (f *serverFixture) do(method, path string, body []byte, withSession bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withSession {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "session-token"})
	}
	rec := httptest.NewRecorder()
	f.srv.engine.ServeHTTP(rec, req)
	return rec
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error.Type
}

func TestAPIRequiresSession(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodGet, "/api/appointments", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "unauthorized" {
		t.Fatalf("expected unauthorized error, got %q", typ)
	}
}

func TestAcceptInvitationRedeemsForCurrentUser(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodGet, "/accept-invitation?token=abc123", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.sharing.lastToken != "abc123" {
		t.Fatalf("expected token abc123, got %q", f.sharing.lastToken)
	}
	if f.sharing.lastRedeem != testUserID {
		t.Fatalf("expected redeemer %d, got %d", testUserID, f.sharing.lastRedeem)
	}
}

func TestAcceptInvitationUnknownTokenIsNotFound(t *testing.T) {
	f := newServerFixture(t)
	f.sharing.redeemErr = sharingdomain.ErrGrantNotFound

	rec := f.do(http.MethodGet, "/accept-invitation?token=used", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "not_found" {
		t.Fatalf("expected not_found error, got %q", typ)
	}
}

func TestShareAppointmentForbiddenForNonOwner(t *testing.T) {
	f := newServerFixture(t)
	f.sharing.shareErr = sharingdomain.ErrForbidden

	body, _ := json.Marshal(map[string]string{"email": "bob@example.com", "permission": "write"})
	rec := f.do(http.MethodPost, "/api/appointments/123/share", body, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "forbidden" {
		t.Fatalf("expected forbidden error, got %q", typ)
	}
	if len(f.appts.activities) != 0 {
		t.Fatalf("expected no activity on failed share, got %v", f.appts.activities)
	}
}

func TestShareAppointmentRecordsActivity(t *testing.T) {
	f := newServerFixture(t)

	body, _ := json.Marshal(map[string]string{"email": "bob@example.com", "permission": "write"})
	rec := f.do(http.MethodPost, "/api/appointments/123/share", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.sharing.lastRequest.Permission != sharingdomain.PermissionWrite {
		t.Fatalf("expected write permission, got %q", f.sharing.lastRequest.Permission)
	}
	if len(f.appts.activities) != 1 || f.appts.activities[0] != apptdomain.ActionShared {
		t.Fatalf("expected a shared activity, got %v", f.appts.activities)
	}
}

func TestShareAppointmentInvalidPermission(t *testing.T) {
	f := newServerFixture(t)
	f.sharing.shareErr = sharingdomain.ErrInvalidPermission

	body, _ := json.Marshal(map[string]string{"email": "bob@example.com", "permission": "admin"})
	rec := f.do(http.MethodPost, "/api/appointments/123/share", body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if typ := errorType(t, rec); typ != "validation_error" {
		t.Fatalf("expected validation_error, got %q", typ)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newServerFixture(t)
	f.auth.loginErr = authdomain.ErrInvalidCredentials

	body, _ := json.Marshal(map[string]string{"email": "a@example.com", "password": "wrong-pass"})

	var last *httptest.ResponseRecorder
	for i := 0; i < loginBurst; i++ {
		last = f.do(http.MethodPost, "/auth/login", body, false)
		if last.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, last.Code)
		}
	}

	last = f.do(http.MethodPost, "/auth/login", body, false)
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last.Code)
	}
	if typ := errorType(t, last); typ != "rate_limited" {
		t.Fatalf("expected rate_limited error, got %q", typ)
	}
}

func TestGetAppointmentHiddenWithoutAccess(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodGet, "/api/appointments/123", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
