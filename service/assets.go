// ABOUTME: Asset registration, listing, renewal and removal
// ABOUTME: Applies access scope, placement rules and expiration computation
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/expirytrack/apperr"
	"github.com/harperreed/expirytrack/db"
	"github.com/harperreed/expirytrack/expiry"
	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/scope"
	"go.uber.org/zap"
)

// NewAsset is the input for registering an asset. OwnerEmail defaults to
// the acting user.
type NewAsset struct {
	ExternalID         string
	SerialNumber       string
	Rule               string
	LastInspectionDate time.Time
	OrgUnit            string
	SubUnit            string
	OwnerEmail         string
}

// ListFilter narrows a listing beyond the actor's scope.
type ListFilter struct {
	Status models.Status
	Domain string
}

func (s *Service) CreateAsset(ctx context.Context, actor models.Actor, in NewAsset) (*models.AssetView, error) {
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		return nil, apperr.Validation("external asset id is required")
	}
	if in.LastInspectionDate.IsZero() {
		return nil, apperr.Validation("last inspection date is required")
	}
	if strings.TrimSpace(in.Rule) == "" {
		return nil, apperr.Validation("a validity rule is required")
	}

	orgUnit, subUnit, err := scope.Placement(actor, in.OrgUnit, in.SubUnit)
	if err != nil {
		return nil, err
	}
	rule, err := s.GetRule(ctx, in.Rule)
	if err != nil {
		return nil, err
	}
	owner, err := s.assignOwner(ctx, actor, in.OwnerEmail)
	if err != nil {
		return nil, err
	}

	expires, err := expirationFor(in.LastInspectionDate, rule.ValidityWindowDays)
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		ExternalID:         externalID,
		SerialNumber:       strings.TrimSpace(in.SerialNumber),
		RuleID:             rule.ID,
		OwnerID:            owner.ID,
		LastInspectionDate: expiry.Midnight(in.LastInspectionDate),
		ExpirationDate:     expires,
		OrgUnit:            orgUnit,
		SubUnit:            subUnit,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, assetError(err, externalID)
	}

	s.confirm(ctx, actor, *asset, *rule)

	view := s.view(models.ResolvedAsset{Asset: *asset, Rule: rule, Owner: owner})
	return &view, nil
}

// expirationFor computes the expiration date, refusing dates that cannot be
// stored as a four-digit year.
func expirationFor(inspected time.Time, windowDays int) (time.Time, error) {
	expires := expiry.ComputeExpiration(inspected, windowDays)
	if expires.Year() > 9999 {
		return time.Time{}, apperr.Validation("expiration date %s is out of range", expires.Format("2006-01-02"))
	}
	return expires, nil
}

// assignOwner resolves the owner of a new or updated asset. Plain users can
// only own their own assets.
func (s *Service) assignOwner(ctx context.Context, actor models.Actor, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.EqualFold(email, actor.Email) {
		return ownerOrNotFound(s.users.Get(ctx, actor.ID))
	}
	if actor.Role == models.RoleUser {
		return nil, apperr.Unauthorized("users may only register assets for themselves")
	}
	return ownerOrNotFound(s.users.GetByEmail(ctx, email))
}

func ownerOrNotFound(user *models.User, err error) (*models.User, error) {
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, apperr.NotFound("owner not found")
	}
	return user, err
}

// confirm sends the creation acknowledgement. Failures never fail the creation.
func (s *Service) confirm(ctx context.Context, actor models.Actor, asset models.Asset, rule models.ValidityRule) {
	if s.mailer == nil {
		return
	}
	msg := s.composer.Confirmation(actor.Email, asset, rule)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("Failed to send creation confirmation",
			zap.String("external_id", asset.ExternalID),
			zap.String("recipient", actor.Email),
			zap.Error(err),
		)
	}
}

// ListAssets returns the assets visible to the actor with their status at now.
func (s *Service) ListAssets(ctx context.Context, actor models.Actor, filter ListFilter) ([]models.AssetView, error) {
	f, err := scope.Resolve(actor)
	if err != nil {
		return nil, err
	}
	resolved, err := s.assets.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}

	domain := strings.ToUpper(strings.TrimSpace(filter.Domain))
	views := make([]models.AssetView, 0, len(resolved))
	for _, r := range resolved {
		v := s.view(r)
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if domain != "" && v.Domain != domain {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// GetAsset returns one asset by id or external id, if it is in scope.
func (s *Service) GetAsset(ctx context.Context, actor models.Actor, ref string) (*models.AssetView, error) {
	resolved, err := s.findAsset(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := scope.Authorize(actor, resolved.Asset); err != nil {
		return nil, err
	}
	view := s.view(*resolved)
	return &view, nil
}

// UpdateAsset applies the changes. The expiration date is recomputed when
// the inspection date or the rule changes.
func (s *Service) UpdateAsset(ctx context.Context, actor models.Actor, ref string, upd models.AssetUpdate) (*models.AssetView, error) {
	resolved, err := s.findAsset(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := scope.Authorize(actor, resolved.Asset); err != nil {
		return nil, err
	}

	asset := resolved.Asset
	rule := resolved.Rule
	owner := resolved.Owner
	recompute := false

	if upd.ExternalID != nil {
		asset.ExternalID = strings.TrimSpace(*upd.ExternalID)
		if asset.ExternalID == "" {
			return nil, apperr.Validation("external asset id cannot be empty")
		}
	}
	if upd.SerialNumber != nil {
		asset.SerialNumber = strings.TrimSpace(*upd.SerialNumber)
	}
	if upd.RuleID != nil {
		rule, err = s.GetRule(ctx, upd.RuleID.String())
		if err != nil {
			return nil, err
		}
		asset.RuleID = rule.ID
		recompute = true
	}
	if upd.LastInspectionDate != nil {
		if upd.LastInspectionDate.IsZero() {
			return nil, apperr.Validation("last inspection date cannot be empty")
		}
		asset.LastInspectionDate = expiry.Midnight(*upd.LastInspectionDate)
		recompute = true
	}
	if upd.OwnerEmail != nil {
		owner, err = s.assignOwner(ctx, actor, *upd.OwnerEmail)
		if err != nil {
			return nil, err
		}
		asset.OwnerID = owner.ID
	}
	if upd.OrgUnit != nil || upd.SubUnit != nil {
		org, sub := asset.OrgUnit, asset.SubUnit
		if upd.OrgUnit != nil {
			org = *upd.OrgUnit
		}
		if upd.SubUnit != nil {
			sub = *upd.SubUnit
		}
		if asset.OrgUnit, asset.SubUnit, err = scope.Placement(actor, org, sub); err != nil {
			return nil, err
		}
	}

	if recompute {
		if rule == nil {
			return nil, apperr.Validation("asset %s has no validity rule; assign one first", asset.ExternalID)
		}
		if asset.ExpirationDate, err = expirationFor(asset.LastInspectionDate, rule.ValidityWindowDays); err != nil {
			return nil, err
		}
	}

	if err := s.assets.Update(ctx, &asset); err != nil {
		return nil, assetError(err, asset.ExternalID)
	}
	view := s.view(models.ResolvedAsset{Asset: asset, Rule: rule, Owner: owner})
	return &view, nil
}

// RenewAsset records a new inspection and moves the expiration date forward.
func (s *Service) RenewAsset(ctx context.Context, actor models.Actor, ref string, inspected time.Time) (*models.AssetView, error) {
	return s.UpdateAsset(ctx, actor, ref, models.AssetUpdate{LastInspectionDate: &inspected})
}

func (s *Service) DeleteAsset(ctx context.Context, actor models.Actor, ref string) error {
	resolved, err := s.findAsset(ctx, ref)
	if err != nil {
		return err
	}
	if err := scope.Authorize(actor, resolved.Asset); err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, resolved.Asset.ID); err != nil {
		return assetError(err, resolved.Asset.ExternalID)
	}
	return nil
}

// PurgeAssets deletes every asset. Admin only.
func (s *Service) PurgeAssets(ctx context.Context, actor models.Actor) (int64, error) {
	if err := requireAdmin(actor, "purge assets"); err != nil {
		return 0, err
	}
	removed, err := s.assets.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Purged assets", zap.String("actor", actor.Email), zap.Int64("removed", removed))
	return removed, nil
}

// findAsset accepts an asset id or its external id.
func (s *Service) findAsset(ctx context.Context, ref string) (*models.ResolvedAsset, error) {
	ref = strings.TrimSpace(ref)
	id, err := uuid.Parse(ref)
	if err != nil {
		asset, lookupErr := s.assets.GetByExternalID(ctx, ref)
		if lookupErr != nil {
			return nil, assetError(lookupErr, ref)
		}
		id = asset.ID
	}
	resolved, err := s.assets.FindResolved(ctx, id)
	if err != nil {
		return nil, assetError(err, ref)
	}
	return resolved, nil
}

func (s *Service) view(r models.ResolvedAsset) models.AssetView {
	v := models.AssetView{Asset: r.Asset}
	window := 0
	if r.Rule != nil {
		v.Domain = r.Rule.Domain
		v.Topic = r.Rule.Topic
		v.ValidityWindowDays = r.Rule.ValidityWindowDays
		window = r.Rule.ValidityWindowDays
	}
	if r.Owner != nil {
		v.OwnerEmail = r.Owner.Email
	}
	v.DaysRemaining = expiry.DaysRemaining(r.Asset.ExpirationDate, s.today())
	v.Status = expiry.StatusTier(v.DaysRemaining, window)
	return v
}

func assetError(err error, ref string) error {
	switch {
	case errors.Is(err, db.ErrDuplicate):
		return apperr.Validation("asset %s already exists", ref)
	case errors.Is(err, db.ErrAssetNotFound):
		return apperr.NotFound("asset %s", ref)
	}
	return err
}
