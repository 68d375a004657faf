package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/appointment/domain"
	apptrepo "github.com/carebook/carebook/internal/appointment/repository"
	"github.com/carebook/carebook/internal/clock"
	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/providers/email"
	sharingdomain "github.com/carebook/carebook/internal/sharing/domain"
	sharingrepo "github.com/carebook/carebook/internal/sharing/repository"
	sharingservice "github.com/carebook/carebook/internal/sharing/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ownerID = snowflake.ID(1)
	bobID   = snowflake.ID(2)
	carolID = snowflake.ID(3)
)

type fakeUsers struct {
	byEmail map[string]snowflake.ID
}

func (f *fakeUsers) UserIDByEmail(ctx context.Context, address string) (snowflake.ID, bool, error) {
	id, ok := f.byEmail[strings.ToLower(address)]
	return id, ok, nil
}

func (f *fakeUsers) DisplayName(ctx context.Context, id snowflake.ID) (string, error) {
	return fmt.Sprintf("user-%d", id), nil
}

type fixture struct {
	svc    domain.Service
	shares sharingdomain.Service
	db     *gorm.DB
	clock  *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Appointment{},
		&domain.Activity{},
		&sharingdomain.AppointmentGrant{},
		&sharingdomain.DashboardGrant{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	users := &fakeUsers{byEmail: map[string]snowflake.ID{
		"bob@example.com":   bobID,
		"carol@example.com": carolID,
	}}

	repo := apptrepo.NewRepository(db)
	resources := apptrepo.NewResourceDirectory(db)
	shares := sharingservice.New(zap.NewNop(), config.Config{BaseURL: "http://localhost:8080"},
		sharingrepo.NewRepository(db), resources, users, node, clk, &email.NoOpProvider{})

	svc := New(zap.NewNop(), repo, shares, node, clk)

	return &fixture{svc: svc, shares: shares, db: db, clock: clk}
}

func (f *fixture) createAppointment(t *testing.T, title string, start, end time.Time) *domain.Appointment {
	t.Helper()
	appt, err := f.svc.Create(context.Background(), domain.CreateRequest{
		OwnerID: ownerID,
		Title:   title,
		StartAt: start,
		EndAt:   end,
	})
	require.NoError(t, err)
	return appt
}

// shareAndRedeem hands the invitee an accepted grant at the given level.
func (f *fixture) shareAndRedeem(t *testing.T, apptID, invitee snowflake.ID, address string, p sharingdomain.Permission) {
	t.Helper()
	res, err := f.shares.ShareAppointment(context.Background(), sharingdomain.ShareAppointmentRequest{
		AppointmentID: apptID,
		InviterID:     ownerID,
		InviteeEmail:  address,
		Permission:    p,
	})
	require.NoError(t, err)
	_, err = f.shares.Redeem(context.Background(), res.Token, invitee)
	require.NoError(t, err)
}

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateRequest{
		OwnerID: ownerID,
		Title:   "   ",
		StartAt: at(2, 10),
		EndAt:   at(2, 11),
	})
	require.ErrorIs(t, err, domain.ErrInvalidTitle)

	// end_at must be strictly after start_at.
	_, err = f.svc.Create(ctx, domain.CreateRequest{
		OwnerID: ownerID,
		Title:   "Checkup",
		StartAt: at(2, 10),
		EndAt:   at(2, 10),
	})
	require.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = f.svc.Create(ctx, domain.CreateRequest{
		OwnerID: ownerID,
		Title:   "Checkup",
		StartAt: at(2, 10),
		EndAt:   at(2, 11),
		Status:  "cancelled",
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestCreateRecordsActivity(t *testing.T) {
	f := newFixture(t)

	appt := f.createAppointment(t, "Checkup", at(2, 10), at(2, 11))
	assert.Equal(t, domain.StatusPending, appt.Status)

	activities, err := f.svc.ListActivities(context.Background(), appt.ID, sharingdomain.ByID(ownerID))
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, domain.ActionCreated, activities[0].Action)
	assert.Equal(t, ownerID, activities[0].ActorUserID)
}

func TestGetHidesExistenceFromStrangers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.createAppointment(t, "Checkup", at(2, 10), at(2, 11))

	got, err := f.svc.Get(ctx, appt.ID, sharingdomain.ByID(ownerID))
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)

	_, err = f.svc.Get(ctx, appt.ID, sharingdomain.ByID(bobID))
	require.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}

func TestUpdateRequiresWriteLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.createAppointment(t, "Checkup", at(2, 10), at(2, 11))
	f.shareAndRedeem(t, appt.ID, bobID, "bob@example.com", sharingdomain.PermissionRead)

	req := domain.UpdateRequest{
		Title:   "Checkup (moved)",
		StartAt: at(3, 10),
		EndAt:   at(3, 11),
	}

	// Read level sees the appointment but may not modify it.
	_, err := f.svc.Update(ctx, appt.ID, req, sharingdomain.ByID(bobID))
	require.ErrorIs(t, err, sharingdomain.ErrForbidden)

	f.shareAndRedeem(t, appt.ID, carolID, "carol@example.com", sharingdomain.PermissionWrite)
	updated, err := f.svc.Update(ctx, appt.ID, req, sharingdomain.ByID(carolID))
	require.NoError(t, err)
	assert.Equal(t, "Checkup (moved)", updated.Title)

	activities, err := f.svc.ListActivities(ctx, appt.ID, sharingdomain.ByID(ownerID))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdated, activities[len(activities)-1].Action)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.createAppointment(t, "Checkup", at(2, 10), at(2, 11))

	_, err := f.svc.UpdateStatus(ctx, appt.ID, "archived", sharingdomain.ByID(ownerID))
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	updated, err := f.svc.UpdateStatus(ctx, appt.ID, domain.StatusDone, sharingdomain.ByID(ownerID))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, updated.Status)

	activities, err := f.svc.ListActivities(ctx, appt.ID, sharingdomain.ByID(ownerID))
	require.NoError(t, err)
	last := activities[len(activities)-1]
	assert.Equal(t, domain.ActionStatusChanged, last.Action)
	assert.Equal(t, "pending -> done", last.Detail)
}

func TestDeleteRequiresFullLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt := f.createAppointment(t, "Checkup", at(2, 10), at(2, 11))

	f.shareAndRedeem(t, appt.ID, bobID, "bob@example.com", sharingdomain.PermissionWrite)
	err := f.svc.Delete(ctx, appt.ID, sharingdomain.ByID(bobID))
	require.ErrorIs(t, err, sharingdomain.ErrForbidden)

	f.shareAndRedeem(t, appt.ID, carolID, "carol@example.com", sharingdomain.PermissionFull)
	require.NoError(t, f.svc.Delete(ctx, appt.ID, sharingdomain.ByID(carolID)))

	_, err = f.svc.Get(ctx, appt.ID, sharingdomain.ByID(ownerID))
	require.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}

func TestListRangeIncludesSharedEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.createAppointment(t, "Mine", at(2, 10), at(2, 11))
	shared := f.createAppointment(t, "Shared", at(3, 10), at(3, 11))
	hidden := f.createAppointment(t, "Hidden", at(4, 10), at(4, 11))
	outside := f.createAppointment(t, "Outside", at(20, 10), at(20, 11))
	_ = mine
	_ = hidden
	_ = outside

	f.shareAndRedeem(t, shared.ID, bobID, "bob@example.com", sharingdomain.PermissionRead)

	appts, err := f.svc.ListRange(ctx, sharingdomain.ByID(bobID), domain.RangeQuery{
		From: at(1, 0),
		To:   at(10, 0),
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, shared.ID, appts[0].ID)
}

func TestListRangeDashboardGrantShowsWholeCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createAppointment(t, "First", at(2, 10), at(2, 11))
	second := f.createAppointment(t, "Second", at(5, 10), at(5, 11))

	res, err := f.shares.ShareDashboard(ctx, sharingdomain.ShareDashboardRequest{
		OwnerID:      ownerID,
		InviteeEmail: "bob@example.com",
		Permission:   sharingdomain.PermissionRead,
	})
	require.NoError(t, err)
	_, err = f.shares.Redeem(ctx, res.Token, bobID)
	require.NoError(t, err)

	appts, err := f.svc.ListRange(ctx, sharingdomain.ByID(bobID), domain.RangeQuery{
		From: at(1, 0),
		To:   at(10, 0),
	})
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, first.ID, appts[0].ID)
	assert.Equal(t, second.ID, appts[1].ID)
}

func TestListRangeOwnCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inside := f.createAppointment(t, "Inside", at(2, 10), at(2, 11))
	f.createAppointment(t, "Outside", at(20, 10), at(20, 11))

	appts, err := f.svc.ListRange(ctx, sharingdomain.ByID(ownerID), domain.RangeQuery{
		From: at(1, 0),
		To:   at(10, 0),
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, inside.ID, appts[0].ID)

	_, err = f.svc.ListRange(ctx, sharingdomain.ByID(ownerID), domain.RangeQuery{
		From: at(10, 0),
		To:   at(10, 0),
	})
	require.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
