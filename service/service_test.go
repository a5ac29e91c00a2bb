// ABOUTME: Tests for the application service
// ABOUTME: Runs against in-memory SQLite with a recording mailer
package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/expirytrack/apperr"
	"github.com/harperreed/expirytrack/db"
	"github.com/harperreed/expirytrack/expiry"
	"github.com/harperreed/expirytrack/mail"
	"github.com/harperreed/expirytrack/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

type env struct {
	svc    *Service
	mailer *recordingMailer
	admin  models.Actor
	boss   models.Actor
	worker models.Actor
	other  models.Actor
	rule   *models.ValidityRule
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// newEnv seeds an admin, a scoped supervisor, two users in different
// sub-units and one 30-day rule. Today is 2024-01-28.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	mailer := &recordingMailer{}
	svc := New(setupTestDB(t), zaptest.NewLogger(t), Options{Mailer: mailer}).
		WithClock(func() time.Time { return date(2024, time.January, 28) })

	_, err := svc.CreateUser(ctx, nil, NewUser{Email: "admin@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	admin, err := svc.Actor(ctx, "admin@example.com")
	require.NoError(t, err)

	mk := func(email string, role models.Role, org, sub string) models.Actor {
		_, err := svc.CreateUser(ctx, &admin, NewUser{Email: email, Role: role, OrgUnit: org, SubUnit: sub})
		require.NoError(t, err)
		actor, err := svc.Actor(ctx, email)
		require.NoError(t, err)
		return actor
	}

	e := &env{
		svc:    svc,
		mailer: mailer,
		admin:  admin,
		boss:   mk("boss@example.com", models.RoleSupervisor, "North", ""),
		worker: mk("worker@example.com", models.RoleUser, "North", "Lab 1"),
		other:  mk("other@example.com", models.RoleUser, "North", "Shop"),
	}
	e.rule, err = svc.CreateRule(ctx, admin, NewRule{Domain: "safety", Topic: "Ladder", ValidityWindowDays: 30})
	require.NoError(t, err)
	return e
}

func (e *env) register(t *testing.T, actor models.Actor, externalID string, inspected time.Time) *models.AssetView {
	t.Helper()
	view, err := e.svc.CreateAsset(context.Background(), actor, NewAsset{
		ExternalID:         externalID,
		Rule:               e.rule.Topic,
		LastInspectionDate: inspected,
		OrgUnit:            "North",
		SubUnit:            "Lab 1",
	})
	require.NoError(t, err)
	return view
}

func TestActorUnknownUser(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Actor(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = e.svc.Actor(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCreateUserRules(t *testing.T) {
	ctx := context.Background()
	svc := New(setupTestDB(t), zaptest.NewLogger(t), Options{})

	_, err := svc.CreateUser(ctx, nil, NewUser{Email: "first@example.com", Role: models.RoleUser, OrgUnit: "A", SubUnit: "B"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CreateUser(ctx, nil, NewUser{Email: "root@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, nil, NewUser{Email: "next@example.com", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	admin, err := svc.Actor(ctx, "root@example.com")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, &admin, NewUser{Email: "half@example.com", Role: models.RoleUser, OrgUnit: "A"})
	assert.ErrorIs(t, err, apperr.ErrValidation, "a user needs both units")

	_, err = svc.CreateUser(ctx, &admin, NewUser{Email: "ROOT@example.com", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, apperr.ErrValidation, "emails are unique case-insensitively")

	_, err = svc.CreateUser(ctx, &admin, NewUser{Email: "not-an-email", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListUsersRequiresElevatedRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	users, err := e.svc.ListUsers(ctx, e.boss)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	_, err = e.svc.ListUsers(ctx, e.worker)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRuleValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewRule
	}{
		{"unknown domain", NewRule{Domain: "FINANCE", Topic: "Audit", ValidityWindowDays: 30}},
		{"empty topic", NewRule{Domain: "LAB", Topic: "  ", ValidityWindowDays: 30}},
		{"zero window", NewRule{Domain: "LAB", Topic: "Scale", ValidityWindowDays: 0}},
		{"negative window", NewRule{Domain: "LAB", Topic: "Scale", ValidityWindowDays: -5}},
		{"duplicate topic", NewRule{Domain: "LAB", Topic: "Ladder", ValidityWindowDays: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.CreateRule(ctx, e.admin, tt.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	rules, err := e.svc.ListRules(ctx, "")
	require.NoError(t, err)
	assert.Len(t, rules, 1, "failed creations leave the catalog unchanged")
}

func TestRuleWindowUpperBound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateRule(ctx, e.admin, NewRule{Domain: "LAB", Topic: "Forever", ValidityWindowDays: 3000000})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	rule, err := e.svc.CreateRule(ctx, e.admin, NewRule{Domain: "LAB", Topic: "Century", ValidityWindowDays: expiry.MaxWindowDays})
	require.NoError(t, err)
	assert.Equal(t, expiry.MaxWindowDays, rule.ValidityWindowDays)

	tooLong := expiry.MaxWindowDays + 1
	_, err = e.svc.UpdateRule(ctx, e.admin, "Ladder", RuleUpdate{ValidityWindowDays: &tooLong})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	stored, err := e.svc.GetRule(ctx, "Ladder")
	require.NoError(t, err)
	assert.Equal(t, 30, stored.ValidityWindowDays)
}

func TestCreateAssetExpirationOutOfRange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateRule(ctx, e.admin, NewRule{Domain: "LAB", Topic: "Century", ValidityWindowDays: expiry.MaxWindowDays})
	require.NoError(t, err)

	_, err = e.svc.CreateAsset(ctx, e.admin, NewAsset{
		ExternalID:         "FAR-1",
		Rule:               "Century",
		LastInspectionDate: date(9950, time.January, 1),
		OrgUnit:            "North",
		SubUnit:            "Lab 1",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	view := e.register(t, e.admin, "NEAR-1", date(2024, time.January, 1))
	rule, err := e.svc.GetRule(ctx, "Century")
	require.NoError(t, err)
	far := date(9950, time.January, 1)
	_, err = e.svc.UpdateAsset(ctx, e.admin, view.ExternalID, models.AssetUpdate{RuleID: &rule.ID, LastInspectionDate: &far})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assets, err := e.svc.ListAssets(ctx, e.admin, ListFilter{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, date(2024, time.January, 31), assets[0].ExpirationDate)
}

func TestRuleChangesAreAdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	window := 10

	_, err := e.svc.CreateRule(ctx, e.boss, NewRule{Domain: "LAB", Topic: "Scale", ValidityWindowDays: 30})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.svc.UpdateRule(ctx, e.worker, "Ladder", RuleUpdate{ValidityWindowDays: &window})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, e.svc.DeleteRule(ctx, e.boss, "Ladder"), apperr.ErrUnauthorized)

	_, err = e.svc.GetRule(ctx, "Nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRuleUpdateDoesNotRewriteAssets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asset := e.register(t, e.worker, "A-1", date(2024, time.January, 1))

	window := 90
	updated, err := e.svc.UpdateRule(ctx, e.admin, e.rule.ID.String(), RuleUpdate{ValidityWindowDays: &window})
	require.NoError(t, err)
	assert.Equal(t, 90, updated.ValidityWindowDays)

	got, err := e.svc.GetAsset(ctx, e.worker, "A-1")
	require.NoError(t, err)
	assert.Equal(t, asset.ExpirationDate, got.ExpirationDate)

	// A renewal picks up the new window.
	renewed, err := e.svc.RenewAsset(ctx, e.worker, "A-1", date(2024, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.March, 31), renewed.ExpirationDate)
}

func TestDeleteRuleInUse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, e.worker, "A-1", date(2024, time.January, 1))

	assert.ErrorIs(t, e.svc.DeleteRule(ctx, e.admin, "Ladder"), apperr.ErrValidation)

	require.NoError(t, e.svc.DeleteAsset(ctx, e.worker, "A-1"))
	require.NoError(t, e.svc.DeleteRule(ctx, e.admin, "Ladder"))
	assert.ErrorIs(t, e.svc.DeleteRule(ctx, e.admin, "Ladder"), apperr.ErrNotFound)
}

func TestCreateAssetAsUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	view, err := e.svc.CreateAsset(ctx, e.worker, NewAsset{
		ExternalID:         "A-1",
		SerialNumber:       "SN-1",
		Rule:               "Ladder",
		LastInspectionDate: time.Date(2024, time.January, 1, 14, 0, 0, 0, time.UTC),
		OrgUnit:            "South",
		SubUnit:            "Elsewhere",
	})
	require.NoError(t, err)

	assert.Equal(t, "North", view.OrgUnit, "users are placed in their own org-unit")
	assert.Equal(t, "Lab 1", view.SubUnit)
	assert.Equal(t, date(2024, time.January, 31), view.ExpirationDate)
	assert.Equal(t, 3, view.DaysRemaining)
	assert.Equal(t, models.StatusExpiringSoon, view.Status)
	assert.Equal(t, "worker@example.com", view.OwnerEmail)
	assert.Equal(t, "Ladder", view.Topic)

	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, "worker@example.com", e.mailer.sent[0].To)
	assert.Contains(t, e.mailer.sent[0].Subject, "A-1")
}

func TestCreateAssetConfirmationFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	e.mailer.err = errors.New("mail down")

	view := e.register(t, e.worker, "A-1", date(2024, time.January, 1))
	assert.Equal(t, "A-1", view.ExternalID)
}

func TestCreateAssetValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, e.worker, "A-1", date(2024, time.January, 1))

	base := NewAsset{ExternalID: "A-2", Rule: "Ladder", LastInspectionDate: date(2024, time.January, 1), OrgUnit: "North", SubUnit: "Lab 1"}

	tests := []struct {
		name   string
		actor  models.Actor
		mutate func(*NewAsset)
		kind   error
	}{
		{"duplicate external id", e.worker, func(a *NewAsset) { a.ExternalID = "A-1" }, apperr.ErrValidation},
		{"missing external id", e.worker, func(a *NewAsset) { a.ExternalID = "" }, apperr.ErrValidation},
		{"missing inspection date", e.worker, func(a *NewAsset) { a.LastInspectionDate = time.Time{} }, apperr.ErrValidation},
		{"missing rule", e.worker, func(a *NewAsset) { a.Rule = "" }, apperr.ErrValidation},
		{"unknown rule", e.worker, func(a *NewAsset) { a.Rule = "Forklift" }, apperr.ErrNotFound},
		{"admin without placement", e.admin, func(a *NewAsset) { a.OrgUnit = "" }, apperr.ErrValidation},
		{"user assigning another owner", e.worker, func(a *NewAsset) { a.OwnerEmail = "other@example.com" }, apperr.ErrUnauthorized},
		{"unknown owner", e.admin, func(a *NewAsset) { a.OwnerEmail = "ghost@example.com" }, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := e.svc.CreateAsset(ctx, tt.actor, in)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	all, err := e.svc.ListAssets(ctx, e.admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected creations do not write")
}

func TestSupervisorPlacementAndOwner(t *testing.T) {
	e := newEnv(t)
	view, err := e.svc.CreateAsset(context.Background(), e.boss, NewAsset{
		ExternalID:         "B-1",
		Rule:               "Ladder",
		LastInspectionDate: date(2024, time.January, 1),
		OrgUnit:            "South",
		SubUnit:            "Shop",
		OwnerEmail:         "other@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "North", view.OrgUnit, "scoped supervisors stay in their org-unit")
	assert.Equal(t, "Shop", view.SubUnit)
	assert.Equal(t, "other@example.com", view.OwnerEmail)
}

func TestListAssetsScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, e.worker, "LAB", date(2024, time.January, 1))
	e.register(t, e.other, "SHOP", date(2023, time.December, 1))
	_, err := e.svc.CreateAsset(ctx, e.admin, NewAsset{ExternalID: "SOUTH", Rule: "Ladder",
		LastInspectionDate: date(2024, time.January, 20), OrgUnit: "South", SubUnit: "Depot"})
	require.NoError(t, err)

	count := func(actor models.Actor, filter ListFilter) int {
		views, err := e.svc.ListAssets(ctx, actor, filter)
		require.NoError(t, err)
		return len(views)
	}

	assert.Equal(t, 3, count(e.admin, ListFilter{}))
	assert.Equal(t, 2, count(e.boss, ListFilter{}))
	assert.Equal(t, 1, count(e.worker, ListFilter{}))
	assert.Equal(t, 1, count(e.other, ListFilter{}))
	assert.Equal(t, 1, count(e.admin, ListFilter{Status: models.StatusExpired}))
	assert.Equal(t, 1, count(e.admin, ListFilter{Status: models.StatusValid}))
	assert.Equal(t, 3, count(e.admin, ListFilter{Domain: "safety"}))
	assert.Equal(t, 0, count(e.admin, ListFilter{Domain: "LAB"}))
}

func TestAssetOutOfScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, e.worker, "A-1", date(2024, time.January, 1))

	_, err := e.svc.GetAsset(ctx, e.other, "A-1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.svc.RenewAsset(ctx, e.other, "A-1", date(2024, time.January, 20))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, e.svc.DeleteAsset(ctx, e.other, "A-1"), apperr.ErrUnauthorized)

	got, err := e.svc.GetAsset(ctx, e.worker, "A-1")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 1), got.LastInspectionDate, "unauthorized renew did not write")

	_, err = e.svc.GetAsset(ctx, e.admin, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateAsset(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asset := e.register(t, e.worker, "A-1", date(2024, time.January, 1))

	long, err := e.svc.CreateRule(ctx, e.admin, NewRule{Domain: "QUALITY", Topic: "Gauge", ValidityWindowDays: 365})
	require.NoError(t, err)

	serial := "SN-2"
	sub := "Shop"
	owner := "other@example.com"
	updated, err := e.svc.UpdateAsset(ctx, e.boss, asset.ID.String(), models.AssetUpdate{
		SerialNumber: &serial,
		RuleID:       &long.ID,
		SubUnit:      &sub,
		OwnerEmail:   &owner,
	})
	require.NoError(t, err)
	assert.Equal(t, "SN-2", updated.SerialNumber)
	assert.Equal(t, date(2024, time.December, 31), updated.ExpirationDate, "rule change recomputes expiration")
	assert.Equal(t, "Shop", updated.SubUnit)
	assert.Equal(t, "other@example.com", updated.OwnerEmail)
	assert.Equal(t, models.StatusValid, updated.Status)

	// The worker can no longer see it once it moved sub-units.
	_, err = e.svc.GetAsset(ctx, e.worker, "A-1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	empty := ""
	_, err = e.svc.UpdateAsset(ctx, e.admin, "A-1", models.AssetUpdate{ExternalID: &empty})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPurgeAssets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, e.worker, "A-1", date(2024, time.January, 1))
	e.register(t, e.worker, "A-2", date(2024, time.January, 2))

	_, err := e.svc.PurgeAssets(ctx, e.boss)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	removed, err := e.svc.PurgeAssets(ctx, e.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}
