// ABOUTME: Repository for tracked assets
// ABOUTME: CRUD plus joined reads that resolve each asset's rule and owner
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
	"github.com/harperreed/expirytrack/scope"
	"go.uber.org/zap"
)

// errUnreadableDate marks a row whose stored dates do not parse.
var errUnreadableDate = errors.New("unreadable date")

// AssetRepository provides CRUD and query operations for assets.
type AssetRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db, logger: zap.NewNop()}
}

// WithLogger sets the logger used to report skipped rows.
func (r *AssetRepository) WithLogger(logger *zap.Logger) *AssetRepository {
	r.logger = logger
	return r
}

const assetColumns = `id, external_id, serial_number, rule_id, owner_id,
	last_inspection_date, expiration_date, org_unit, sub_unit, created_at, updated_at`

// resolvedSelect joins rules and owners without dropping assets whose
// references dangle.
const resolvedSelect = `
	SELECT a.id, a.external_id, a.serial_number, a.rule_id, a.owner_id,
		a.last_inspection_date, a.expiration_date, a.org_unit, a.sub_unit, a.created_at, a.updated_at,
		r.id, r.domain, r.topic, r.validity_window_days,
		u.id, u.email, u.role, u.org_unit, u.sub_unit
	FROM assets a
	LEFT JOIN validity_rules r ON r.id = a.rule_id
	LEFT JOIN users u ON u.id = a.owner_id`

func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	asset.ExternalID = strings.TrimSpace(asset.ExternalID)
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID.String(), asset.ExternalID, asset.SerialNumber,
		asset.RuleID.String(), asset.OwnerID.String(),
		formatDate(asset.LastInspectionDate), formatDate(asset.ExpirationDate),
		asset.OrgUnit, asset.SubUnit, asset.CreatedAt, asset.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("asset %s: %w", asset.ExternalID, ErrDuplicate)
	}
	return err
}

func (r *AssetRepository) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id.String())
	return scanAsset(row)
}

func (r *AssetRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Asset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE external_id = ?`, strings.TrimSpace(externalID))
	return scanAsset(row)
}

// Update overwrites every mutable column of the asset.
func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	asset.ExternalID = strings.TrimSpace(asset.ExternalID)
	asset.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE assets
		SET external_id = ?, serial_number = ?, rule_id = ?, owner_id = ?,
			last_inspection_date = ?, expiration_date = ?, org_unit = ?, sub_unit = ?, updated_at = ?
		WHERE id = ?`,
		asset.ExternalID, asset.SerialNumber, asset.RuleID.String(), asset.OwnerID.String(),
		formatDate(asset.LastInspectionDate), formatDate(asset.ExpirationDate),
		asset.OrgUnit, asset.SubUnit, asset.UpdatedAt, asset.ID.String(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("asset %s: %w", asset.ExternalID, ErrDuplicate)
	}
	if err != nil {
		return err
	}
	return requireAffected(result, ErrAssetNotFound)
}

func (r *AssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireAffected(result, ErrAssetNotFound)
}

// DeleteAll removes every asset and returns how many were removed.
func (r *AssetRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountByRule returns how many assets reference the rule.
func (r *AssetRepository) CountByRule(ctx context.Context, ruleID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets WHERE rule_id = ?`, ruleID.String()).Scan(&count)
	return count, err
}

// FindResolved loads a single asset with its rule and owner.
func (r *AssetRepository) FindResolved(ctx context.Context, id uuid.UUID) (*models.ResolvedAsset, error) {
	row := r.db.QueryRowContext(ctx, resolvedSelect+` WHERE a.id = ?`, id.String())
	resolved, err := scanResolved(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	return resolved, err
}

// FindAll returns the assets matched by the filter, soonest expiration first.
// Rows with unreadable dates are logged and left out.
func (r *AssetRepository) FindAll(ctx context.Context, filter scope.Filter) ([]models.ResolvedAsset, error) {
	query := resolvedSelect + `
		WHERE (? = '' OR a.org_unit = ?) AND (? = '' OR a.sub_unit = ?)
		ORDER BY a.expiration_date, a.external_id`
	return r.queryResolved(ctx, query, filter.OrgUnit, filter.OrgUnit, filter.SubUnit, filter.SubUnit)
}

// FindCandidates returns every asset expiring on or before the given date,
// including those already expired.
func (r *AssetRepository) FindCandidates(ctx context.Context, through time.Time) ([]models.ResolvedAsset, error) {
	query := resolvedSelect + `
		WHERE a.expiration_date <= ?
		ORDER BY a.expiration_date, a.external_id`
	return r.queryResolved(ctx, query, formatDate(through))
}

func (r *AssetRepository) queryResolved(ctx context.Context, query string, args ...interface{}) ([]models.ResolvedAsset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.ResolvedAsset
	for rows.Next() {
		resolved, err := scanResolved(rows)
		if errors.Is(err, errUnreadableDate) {
			r.logger.Warn("Skipping asset with unreadable dates", zap.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, *resolved)
	}
	return results, rows.Err()
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var asset models.Asset
	var inspected, expires string
	err := row.Scan(&asset.ID, &asset.ExternalID, &asset.SerialNumber, &asset.RuleID, &asset.OwnerID,
		&inspected, &expires, &asset.OrgUnit, &asset.SubUnit, &asset.CreatedAt, &asset.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := setAssetDates(&asset, inspected, expires); err != nil {
		return nil, err
	}
	return &asset, nil
}

func scanResolved(row rowScanner) (*models.ResolvedAsset, error) {
	var asset models.Asset
	var inspected, expires string
	var ruleID, domain, topic sql.NullString
	var window sql.NullInt64
	var ownerID, email, role, orgUnit, subUnit sql.NullString

	err := row.Scan(&asset.ID, &asset.ExternalID, &asset.SerialNumber, &asset.RuleID, &asset.OwnerID,
		&inspected, &expires, &asset.OrgUnit, &asset.SubUnit, &asset.CreatedAt, &asset.UpdatedAt,
		&ruleID, &domain, &topic, &window,
		&ownerID, &email, &role, &orgUnit, &subUnit)
	if err != nil {
		return nil, err
	}
	if err := setAssetDates(&asset, inspected, expires); err != nil {
		return nil, err
	}

	resolved := &models.ResolvedAsset{Asset: asset}
	if ruleID.Valid {
		resolved.Rule = &models.ValidityRule{
			ID:                 asset.RuleID,
			Domain:             domain.String,
			Topic:              topic.String,
			ValidityWindowDays: int(window.Int64),
		}
	}
	if ownerID.Valid {
		parsedRole, err := models.ParseRole(role.String)
		if err != nil {
			return nil, err
		}
		resolved.Owner = &models.User{
			ID:      asset.OwnerID,
			Email:   email.String,
			Role:    parsedRole,
			OrgUnit: orgUnit.String,
			SubUnit: subUnit.String,
		}
	}
	return resolved, nil
}

func setAssetDates(asset *models.Asset, inspected, expires string) error {
	var err error
	if asset.LastInspectionDate, err = parseDate(inspected); err != nil {
		return fmt.Errorf("%w: asset %s last inspection date: %v", errUnreadableDate, asset.ExternalID, err)
	}
	if asset.ExpirationDate, err = parseDate(expires); err != nil {
		return fmt.Errorf("%w: asset %s expiration date: %v", errUnreadableDate, asset.ExternalID, err)
	}
	return nil
}
