// ABOUTME: Repository for the validity catalog
// ABOUTME: Each rule maps a domain and unique topic to a validity window in days
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/expirytrack/models"
)

// CatalogRepository provides CRUD operations for validity rules.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const ruleColumns = `id, domain, topic, validity_window_days, created_by, created_at, updated_at`

func (r *CatalogRepository) Create(ctx context.Context, rule *models.ValidityRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.Domain = strings.ToUpper(strings.TrimSpace(rule.Domain))
	rule.Topic = strings.TrimSpace(rule.Topic)
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO validity_rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.ID.String(), rule.Domain, rule.Topic, rule.ValidityWindowDays,
		rule.CreatedBy.String(), rule.CreatedAt, rule.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("topic %q: %w", rule.Topic, ErrDuplicate)
	}
	return err
}

func (r *CatalogRepository) Get(ctx context.Context, id uuid.UUID) (*models.ValidityRule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM validity_rules WHERE id = ?`, id.String())
	return scanRule(row)
}

func (r *CatalogRepository) GetByTopic(ctx context.Context, topic string) (*models.ValidityRule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM validity_rules WHERE topic = ?`, strings.TrimSpace(topic))
	return scanRule(row)
}

// List returns every rule, optionally restricted to one domain.
func (r *CatalogRepository) List(ctx context.Context, domain string) ([]models.ValidityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM validity_rules WHERE (? = '' OR domain = ?) ORDER BY domain, topic`
	domain = strings.ToUpper(strings.TrimSpace(domain))

	rows, err := r.db.QueryContext(ctx, query, domain, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.ValidityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// Update overwrites domain, topic and window. Assets already stored keep
// their expiration dates.
func (r *CatalogRepository) Update(ctx context.Context, rule *models.ValidityRule) error {
	rule.Domain = strings.ToUpper(strings.TrimSpace(rule.Domain))
	rule.Topic = strings.TrimSpace(rule.Topic)
	rule.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE validity_rules
		SET domain = ?, topic = ?, validity_window_days = ?, updated_at = ?
		WHERE id = ?`,
		rule.Domain, rule.Topic, rule.ValidityWindowDays, rule.UpdatedAt, rule.ID.String(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("topic %q: %w", rule.Topic, ErrDuplicate)
	}
	if err != nil {
		return err
	}
	return requireAffected(result, ErrRuleNotFound)
}

func (r *CatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM validity_rules WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireAffected(result, ErrRuleNotFound)
}

func scanRule(row rowScanner) (*models.ValidityRule, error) {
	var rule models.ValidityRule
	err := row.Scan(&rule.ID, &rule.Domain, &rule.Topic, &rule.ValidityWindowDays,
		&rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
