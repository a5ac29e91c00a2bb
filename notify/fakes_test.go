// ABOUTME: In-memory collaborators for notification run tests
// ABOUTME: Fake candidate source, directory and a recording mail transport
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/expirytrack/expiry"
	"github.com/harperreed/expirytrack/mail"
	"github.com/harperreed/expirytrack/models"
)

type fakeSource struct {
	candidates []models.ResolvedAsset
	err        error
	through    time.Time
}

func (f *fakeSource) FindCandidates(_ context.Context, through time.Time) ([]models.ResolvedAsset, error) {
	f.through = through
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ResolvedAsset
	for _, c := range f.candidates {
		if !c.Asset.ExpirationDate.After(through) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	users []models.User
	err   error
}

func (f *fakeDirectory) ListByRoles(_ context.Context, roles ...models.Role) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.User
	for _, u := range f.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

type recordingTransport struct {
	mu       sync.Mutex
	sent     []mail.Message
	failFor  map[string]error
	block    chan struct{}
	blocking chan struct{}
}

func (r *recordingTransport) Send(ctx context.Context, msg mail.Message) error {
	if r.block != nil {
		if r.blocking != nil {
			select {
			case r.blocking <- struct{}{}:
			default:
			}
		}
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err, ok := r.failFor[msg.To]; ok {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingTransport) messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

var errTransport = errors.New("smtp unavailable")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func owner(email string) *models.User {
	return &models.User{ID: uuid.New(), Email: email, Role: models.RoleUser, OrgUnit: "North", SubUnit: "Lab 1"}
}

func rule(topic string, window int) *models.ValidityRule {
	return &models.ValidityRule{ID: uuid.New(), Domain: models.DomainSafety, Topic: topic, ValidityWindowDays: window}
}

func candidate(externalID string, r *models.ValidityRule, o *models.User, inspected time.Time) models.ResolvedAsset {
	asset := models.Asset{
		ID:                 uuid.New(),
		ExternalID:         externalID,
		LastInspectionDate: inspected,
		OrgUnit:            "North",
		SubUnit:            "Lab 1",
	}
	if r != nil {
		asset.RuleID = r.ID
		asset.ExpirationDate = expiry.ComputeExpiration(inspected, r.ValidityWindowDays)
	} else {
		asset.ExpirationDate = inspected
	}
	if o != nil {
		asset.OwnerID = o.ID
	}
	return models.ResolvedAsset{Asset: asset, Rule: r, Owner: o}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
