// ABOUTME: Directory user management
// ABOUTME: Bootstraps the first Admin and enforces who may create and list users
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/harperreed/expirytrack/apperr"
	"github.com/harperreed/expirytrack/db"
	"github.com/harperreed/expirytrack/models"
)

// NewUser is the input for registering a user.
type NewUser struct {
	Email   string
	Role    models.Role
	OrgUnit string
	SubUnit string
}

// CreateUser registers a user. Only an admin may do so, except for the very
// first user, which must itself be an admin.
func (s *Service) CreateUser(ctx context.Context, actor *models.Actor, in NewUser) (*models.User, error) {
	existing, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case len(existing) == 0:
		if in.Role != models.RoleAdmin {
			return nil, apperr.Validation("the first user must be an admin")
		}
	case actor == nil:
		return nil, apperr.Unauthorized("an acting admin is required")
	default:
		if err := requireAdmin(*actor, "add users"); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		Email:   strings.TrimSpace(in.Email),
		Role:    in.Role,
		OrgUnit: strings.TrimSpace(in.OrgUnit),
		SubUnit: strings.TrimSpace(in.SubUnit),
	}
	if user.Email == "" || !strings.Contains(user.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if err := user.Actor().Validate(); err != nil {
		return nil, apperr.Validation("%v", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Validation("user %s already exists", user.Email)
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns the directory. Plain users may not browse it.
func (s *Service) ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if actor.Role == models.RoleUser {
		return nil, apperr.Unauthorized("users may not list the directory")
	}
	return s.users.List(ctx)
}
