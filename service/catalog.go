// ABOUTME: Validity catalog operations
// ABOUTME: Admin-only rule maintenance with domain, topic and window validation
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/expirytrack/apperr"
	"github.com/harperreed/expirytrack/db"
	"github.com/harperreed/expirytrack/expiry"
	"github.com/harperreed/expirytrack/models"
)

// NewRule is the input for a catalog entry.
type NewRule struct {
	Domain             string
	Topic              string
	ValidityWindowDays int
}

// RuleUpdate carries the fields to change; nil means unchanged.
type RuleUpdate struct {
	Domain             *string
	Topic              *string
	ValidityWindowDays *int
}

func validateRule(domain, topic string, window int) error {
	if !models.ValidDomain(domain) {
		return apperr.Validation("unknown domain %q, expected one of %s", domain, strings.Join(models.Domains, ", "))
	}
	if topic == "" {
		return apperr.Validation("topic is required")
	}
	if window < 1 {
		return apperr.Validation("validity window must be at least 1 day, got %d", window)
	}
	if window > expiry.MaxWindowDays {
		return apperr.Validation("validity window must be at most %d days, got %d", expiry.MaxWindowDays, window)
	}
	return nil
}

func (s *Service) CreateRule(ctx context.Context, actor models.Actor, in NewRule) (*models.ValidityRule, error) {
	if err := requireAdmin(actor, "change the catalog"); err != nil {
		return nil, err
	}
	rule := &models.ValidityRule{
		Domain:             strings.ToUpper(strings.TrimSpace(in.Domain)),
		Topic:              strings.TrimSpace(in.Topic),
		ValidityWindowDays: in.ValidityWindowDays,
		CreatedBy:          actor.ID,
	}
	if err := validateRule(rule.Domain, rule.Topic, rule.ValidityWindowDays); err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, ruleError(err, rule.Topic)
	}
	return rule, nil
}

// ListRules returns the catalog, optionally for one domain. Open to every actor.
func (s *Service) ListRules(ctx context.Context, domain string) ([]models.ValidityRule, error) {
	return s.rules.List(ctx, domain)
}

// GetRule resolves a rule by id or by topic.
func (s *Service) GetRule(ctx context.Context, ref string) (*models.ValidityRule, error) {
	var rule *models.ValidityRule
	var err error
	if id, parseErr := uuid.Parse(strings.TrimSpace(ref)); parseErr == nil {
		rule, err = s.rules.Get(ctx, id)
	} else {
		rule, err = s.rules.GetByTopic(ctx, ref)
	}
	if errors.Is(err, db.ErrRuleNotFound) {
		return nil, apperr.NotFound("validity rule %q", ref)
	}
	return rule, err
}

// UpdateRule changes a rule. Assets already registered keep their
// expiration dates until they are renewed or re-categorized.
func (s *Service) UpdateRule(ctx context.Context, actor models.Actor, ref string, in RuleUpdate) (*models.ValidityRule, error) {
	if err := requireAdmin(actor, "change the catalog"); err != nil {
		return nil, err
	}
	rule, err := s.GetRule(ctx, ref)
	if err != nil {
		return nil, err
	}

	if in.Domain != nil {
		rule.Domain = strings.ToUpper(strings.TrimSpace(*in.Domain))
	}
	if in.Topic != nil {
		rule.Topic = strings.TrimSpace(*in.Topic)
	}
	if in.ValidityWindowDays != nil {
		rule.ValidityWindowDays = *in.ValidityWindowDays
	}
	if err := validateRule(rule.Domain, rule.Topic, rule.ValidityWindowDays); err != nil {
		return nil, err
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, ruleError(err, rule.Topic)
	}
	return rule, nil
}

// DeleteRule removes a rule no asset refers to.
func (s *Service) DeleteRule(ctx context.Context, actor models.Actor, ref string) error {
	if err := requireAdmin(actor, "change the catalog"); err != nil {
		return err
	}
	rule, err := s.GetRule(ctx, ref)
	if err != nil {
		return err
	}
	count, err := s.assets.CountByRule(ctx, rule.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("rule %q is used by %d asset(s)", rule.Topic, count)
	}
	if err := s.rules.Delete(ctx, rule.ID); err != nil {
		return ruleError(err, rule.Topic)
	}
	return nil
}

func ruleError(err error, topic string) error {
	switch {
	case errors.Is(err, db.ErrDuplicate):
		return apperr.Validation("topic %q already exists", topic)
	case errors.Is(err, db.ErrRuleNotFound):
		return apperr.NotFound("validity rule %q", topic)
	}
	return err
}
