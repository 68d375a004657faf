package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/auth/domain"
	"github.com/carebook/carebook/internal/auth/repository"
	"github.com/carebook/carebook/internal/clock"
	"github.com/carebook/carebook/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []map[string]any
}

func (m *recordingMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	return nil
}

func (m *recordingMailer) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := map[string]any{"to": to, "template": templateName}
	for k, v := range data {
		entry[k] = v
	}
	m.sent = append(m.sent, entry)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	svc    domain.Service
	db     *gorm.DB
	clock  *clock.FakeClock
	mailer *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	mailer := &recordingMailer{}
	cfg := config.Config{BaseURL: "http://localhost:8080"}

	svc := New(zap.NewNop(), cfg,
		repository.NewRepository(db),
		repository.NewSessionRepository(db),
		node, clk, mailer)

	return &fixture{svc: svc, db: db, clock: clk, mailer: mailer}
}

func (f *fixture) register(t *testing.T, email, password string) *domain.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) verify(t *testing.T, user *domain.User) {
	t.Helper()
	var row domain.User
	require.NoError(t, f.db.First(&row, "id = ?", user.ID).Error)
	require.NotNil(t, row.VerifyToken)
	require.NoError(t, f.svc.VerifyEmail(context.Background(), *row.VerifyToken))
}

func TestRegisterNormalizesEmailAndSendsVerification(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "  Alice@Example.COM ", "s3cret-pass")
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.DisplayName)
	assert.False(t, user.EmailVerified)
	require.NotNil(t, user.VerifyToken)

	require.Eventually(t, func() bool { return f.mailer.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRegisterRejectsDuplicateAndWeakInput(t *testing.T) {
	f := newFixture(t)

	f.register(t, "alice@example.com", "s3cret-pass")

	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "ALICE@example.com",
		Password: "another-pass",
	})
	require.ErrorIs(t, err, domain.ErrUserExists)

	_, err = f.svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "bob@example.com",
		Password: "short",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "not-an-address",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyEmailConsumesTokenOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "s3cret-pass")

	var row domain.User
	require.NoError(t, f.db.First(&row, "id = ?", user.ID).Error)
	require.NotNil(t, row.VerifyToken)
	token := *row.VerifyToken

	require.NoError(t, f.svc.VerifyEmail(ctx, token))

	// The conditional update makes a consumed token indistinguishable from
	// an unknown one.
	require.ErrorIs(t, f.svc.VerifyEmail(ctx, token), domain.ErrTokenNotFound)
	require.ErrorIs(t, f.svc.VerifyEmail(ctx, "bogus"), domain.ErrTokenNotFound)

	require.NoError(t, f.db.First(&row, "id = ?", user.ID).Error)
	assert.True(t, row.EmailVerified)
	assert.Nil(t, row.VerifyToken)
}

func TestLoginRefusesUnverifiedEmail(t *testing.T) {
	f := newFixture(t)

	f.register(t, "alice@example.com", "s3cret-pass")

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, domain.ErrEmailNotVerified)
}

func TestLoginWrongCredentials(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "alice@example.com", "s3cret-pass")
	f.verify(t, user)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-pass",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "s3cret-pass")
	f.verify(t, user)

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawToken)

	sess, err := f.svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)

	_, err = f.svc.Authenticate(ctx, "forged-token")
	require.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestAuthenticateExpiredAndRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "s3cret-pass")
	f.verify(t, user)

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	_, err = f.svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	second, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, second.RawToken))
	_, err = f.svc.Authenticate(ctx, second.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	encoded, err := hashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	assert.True(t, verifyPassword("correct horse battery staple", encoded))
	assert.False(t, verifyPassword("wrong", encoded))
	assert.False(t, verifyPassword("correct horse battery staple", "$argon2id$garbage"))
}
