// ABOUTME: Application service enforcing roles, scope and validation over the repositories
// ABOUTME: Every caller surface (CLI, MCP, TUI) goes through this layer
package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/harperreed/expirytrack/apperr"
	"github.com/harperreed/expirytrack/db"
	"github.com/harperreed/expirytrack/mail"
	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/notify"
	"go.uber.org/zap"
)

// Service implements the tracker operations on behalf of an actor.
type Service struct {
	assets   *db.AssetRepository
	rules    *db.CatalogRepository
	users    *db.UserRepository
	mailer   mail.Transport
	composer notify.Composer
	logger   *zap.Logger
	now      func() time.Time
	location *time.Location
}

// Options configures optional collaborators. A nil Mailer disables
// creation confirmations; a nil Location uses the clock's zone.
type Options struct {
	Mailer      mail.Transport
	TopicLabels map[string]string
	Location    *time.Location
}

func New(database *sql.DB, logger *zap.Logger, opts Options) *Service {
	return &Service{
		assets:   db.NewAssetRepository(database).WithLogger(logger.Named("db")),
		rules:    db.NewCatalogRepository(database),
		users:    db.NewUserRepository(database),
		mailer:   opts.Mailer,
		composer: notify.Composer{TopicLabels: opts.TopicLabels},
		logger:   logger.Named("service"),
		now:      time.Now,
		location: opts.Location,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	now := s.now()
	if s.location != nil {
		now = now.In(s.location)
	}
	return now
}

// Actor looks up the acting user by email. Unknown users are not authorized.
func (s *Service) Actor(ctx context.Context, email string) (models.Actor, error) {
	if strings.TrimSpace(email) == "" {
		return models.Actor{}, apperr.Unauthorized("no acting user given")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrUserNotFound) {
		return models.Actor{}, apperr.Unauthorized("unknown user %s", email)
	}
	if err != nil {
		return models.Actor{}, err
	}
	actor := user.Actor()
	if err := actor.Validate(); err != nil {
		return models.Actor{}, apperr.Validation("%v", err)
	}
	return actor, nil
}

func requireAdmin(actor models.Actor, action string) error {
	if actor.Role != models.RoleAdmin {
		return apperr.Unauthorized("only an admin may %s", action)
	}
	return nil
}
