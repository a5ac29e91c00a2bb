// ABOUTME: Access scope resolution for the org-unit / sub-unit hierarchy
// ABOUTME: The only place that interprets an actor's role and org assignment
package scope

import (
	"strings"

	"github.com/harperreed/expirytrack/apperr"
	"github.com/harperreed/expirytrack/models"
)

// Filter is a predicate over assets. An empty field matches any value.
type Filter struct {
	OrgUnit string
	SubUnit string
}

// All matches every asset.
var All = Filter{}

// Unrestricted reports whether the filter matches every asset.
func (f Filter) Unrestricted() bool {
	return f.OrgUnit == "" && f.SubUnit == ""
}

// Match reports whether the asset is visible through the filter.
func (f Filter) Match(a models.Asset) bool {
	if f.OrgUnit != "" && a.OrgUnit != f.OrgUnit {
		return false
	}
	if f.SubUnit != "" && a.SubUnit != f.SubUnit {
		return false
	}
	return true
}

// Resolve returns the visibility filter for an actor:
//
//	Admin                      everything
//	SuperViewer with org-unit  every sub-unit of that org-unit
//	SuperViewer without        everything
//	User                       own org-unit and sub-unit only
func Resolve(actor models.Actor) (Filter, error) {
	if err := actor.Validate(); err != nil {
		return Filter{}, apperr.Validation("%v", err)
	}
	switch actor.Role {
	case models.RoleAdmin:
		return All, nil
	case models.RoleSupervisor:
		return Filter{OrgUnit: actor.OrgUnit}, nil
	default:
		return Filter{OrgUnit: actor.OrgUnit, SubUnit: actor.SubUnit}, nil
	}
}

// Authorize fails with an authorization error when the asset lies outside
// the actor's scope.
func Authorize(actor models.Actor, asset models.Asset) error {
	f, err := Resolve(actor)
	if err != nil {
		return err
	}
	if !f.Match(asset) {
		return apperr.Unauthorized("asset %s is outside the scope of %s", asset.ExternalID, actor.Email)
	}
	return nil
}

// Placement decides the org-unit and sub-unit an actor may assign to an
// asset. A User is always forced onto its own units, a scoped supervisor
// onto its own org-unit with a free sub-unit; others choose both.
func Placement(actor models.Actor, orgUnit, subUnit string) (string, string, error) {
	if err := actor.Validate(); err != nil {
		return "", "", apperr.Validation("%v", err)
	}
	orgUnit = strings.TrimSpace(orgUnit)
	subUnit = strings.TrimSpace(subUnit)

	switch {
	case actor.Role == models.RoleUser:
		return actor.OrgUnit, actor.SubUnit, nil
	case actor.Role == models.RoleSupervisor && actor.OrgUnit != "":
		orgUnit = actor.OrgUnit
	}

	if orgUnit == "" {
		return "", "", apperr.Validation("org-unit is required")
	}
	if subUnit == "" {
		return "", "", apperr.Validation("sub-unit is required")
	}
	return orgUnit, subUnit, nil
}

// Covers reports whether a user's scope includes the asset. Used to pick
// hierarchy-aware copy recipients; users with an invalid assignment cover nothing.
func Covers(user models.User, asset models.Asset) bool {
	f, err := Resolve(user.Actor())
	if err != nil {
		return false
	}
	return f.Match(asset)
}
