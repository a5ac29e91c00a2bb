// ABOUTME: Data models for the expiry tracker
// ABOUTME: Defines users, roles, validity rules, assets and derived status tiers
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of actor roles. The zero value is not a valid role.
type Role int

const (
	RoleUser Role = iota + 1
	RoleSupervisor
	RoleAdmin
)

// Stored role names. SuperViewer is the historical name for a unit supervisor.
const (
	RoleNameUser       = "User"
	RoleNameSupervisor = "SuperViewer"
	RoleNameAdmin      = "Admin"
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return RoleNameUser
	case RoleSupervisor:
		return RoleNameSupervisor
	case RoleAdmin:
		return RoleNameAdmin
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole accepts the stored role names case-insensitively, plus
// "supervisor" as an alias for SuperViewer.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "superviewer", "supervisor":
		return RoleSupervisor, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Catalog domains.
const (
	DomainQuality   = "QUALITY"
	DomainSafety    = "SAFETY"
	DomainLogistics = "LOGISTICS"
	DomainLab       = "LAB"
	DomainDriving   = "DRIVING"
)

// Domains lists the accepted catalog domains.
var Domains = []string{DomainQuality, DomainSafety, DomainLogistics, DomainLab, DomainDriving}

// ValidDomain reports whether d (already upper-cased) is a known domain.
func ValidDomain(d string) bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// User is a person known to the directory. Email is stored lower-cased.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	OrgUnit   string    `json:"org_unit,omitempty"`
	SubUnit   string    `json:"sub_unit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor returns the access-relevant view of the user.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Email: u.Email, Role: u.Role, OrgUnit: u.OrgUnit, SubUnit: u.SubUnit}
}

// Actor is whoever performs an operation. An empty OrgUnit or SubUnit means unset.
type Actor struct {
	ID      uuid.UUID
	Email   string
	Role    Role
	OrgUnit string
	SubUnit string
}

// Validate enforces the org assignment invariant for each role:
// a User has both units, an Admin has neither, a supervisor may have an
// org-unit but never a sub-unit on its own.
func (a Actor) Validate() error {
	switch a.Role {
	case RoleUser:
		if a.OrgUnit == "" || a.SubUnit == "" {
			return fmt.Errorf("user %s must have both org-unit and sub-unit", a.Email)
		}
	case RoleSupervisor:
		if a.OrgUnit == "" && a.SubUnit != "" {
			return fmt.Errorf("supervisor %s has a sub-unit without an org-unit", a.Email)
		}
	case RoleAdmin:
		if a.OrgUnit != "" || a.SubUnit != "" {
			return fmt.Errorf("admin %s must not be assigned to an org-unit", a.Email)
		}
	default:
		return fmt.Errorf("actor %s has invalid role %s", a.Email, a.Role)
	}
	return nil
}

// ValidityRule maps a catalog category to its validity window.
type ValidityRule struct {
	ID                 uuid.UUID `json:"id"`
	Domain             string    `json:"domain"`
	Topic              string    `json:"topic"`
	ValidityWindowDays int       `json:"validity_window_days"`
	CreatedBy          uuid.UUID `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Asset is a tracked item. ExpirationDate is derived from
// LastInspectionDate and the rule's window, and persisted.
type Asset struct {
	ID                 uuid.UUID `json:"id"`
	ExternalID         string    `json:"external_id"`
	SerialNumber       string    `json:"serial_number,omitempty"`
	RuleID             uuid.UUID `json:"rule_id"`
	OwnerID            uuid.UUID `json:"owner_id"`
	LastInspectionDate time.Time `json:"last_inspection_date"`
	ExpirationDate     time.Time `json:"expiration_date"`
	OrgUnit            string    `json:"org_unit"`
	SubUnit            string    `json:"sub_unit"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AssetUpdate carries the fields to change; nil means unchanged.
type AssetUpdate struct {
	ExternalID         *string
	SerialNumber       *string
	RuleID             *uuid.UUID
	OwnerEmail         *string
	LastInspectionDate *time.Time
	OrgUnit            *string
	SubUnit            *string
}

// Status is the urgency tier of an asset.
type Status string

const (
	StatusValid        Status = "VALID"
	StatusExpiringSoon Status = "EXPIRING_SOON"
	StatusExpired      Status = "EXPIRED"
)

// ResolvedAsset is an asset joined with its rule and owner. Rule or Owner
// is nil when the reference could not be resolved.
type ResolvedAsset struct {
	Asset Asset
	Rule  *ValidityRule
	Owner *User
}

// AssetView combines an asset with its rule, owner and status at a point in time.
type AssetView struct {
	Asset
	Domain             string `json:"domain"`
	Topic              string `json:"topic"`
	ValidityWindowDays int    `json:"validity_window_days"`
	OwnerEmail         string `json:"owner_email"`
	DaysRemaining      int    `json:"days_remaining"`
	Status             Status `json:"status"`
}

// NotificationEvent is created transiently during a daily run and never stored.
type NotificationEvent struct {
	Asset         Asset
	Rule          ValidityRule
	Recipient     string
	Cc            []string
	Urgency       Status
	DaysRemaining int
}
