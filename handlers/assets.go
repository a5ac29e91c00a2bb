// ABOUTME: Asset MCP tool handlers
// ABOUTME: Implements list_assets, get_asset, register_asset, update_asset, renew_asset and delete_asset tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const dateLayout = "2006-01-02"

type AssetHandlers struct {
	svc *service.Service
}

func NewAssetHandlers(svc *service.Service) *AssetHandlers {
	return &AssetHandlers{svc: svc}
}

type AssetOutput struct {
	ID                 string `json:"id"`
	ExternalID         string `json:"external_id"`
	SerialNumber       string `json:"serial_number,omitempty"`
	Domain             string `json:"domain,omitempty"`
	Topic              string `json:"topic,omitempty"`
	ValidityWindowDays int    `json:"validity_window_days,omitempty"`
	OwnerEmail         string `json:"owner_email,omitempty"`
	OrgUnit            string `json:"org_unit"`
	SubUnit            string `json:"sub_unit"`
	LastInspectionDate string `json:"last_inspection_date"`
	ExpirationDate     string `json:"expiration_date"`
	DaysRemaining      int    `json:"days_remaining"`
	Status             string `json:"status"`
}

func assetToOutput(v *models.AssetView) AssetOutput {
	return AssetOutput{
		ID:                 v.ID.String(),
		ExternalID:         v.ExternalID,
		SerialNumber:       v.SerialNumber,
		Domain:             v.Domain,
		Topic:              v.Topic,
		ValidityWindowDays: v.ValidityWindowDays,
		OwnerEmail:         v.OwnerEmail,
		OrgUnit:            v.OrgUnit,
		SubUnit:            v.SubUnit,
		LastInspectionDate: v.LastInspectionDate.Format(dateLayout),
		ExpirationDate:     v.ExpirationDate.Format(dateLayout),
		DaysRemaining:      v.DaysRemaining,
		Status:             string(v.Status),
	}
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", field, err)
	}
	return t, nil
}

type ListAssetsInput struct {
	ActorEmail string `json:"actor_email" jsonschema:"Email of the acting user (required)"`
	Status     string `json:"status,omitempty" jsonschema:"Filter by status: VALID, EXPIRING_SOON or EXPIRED"`
	Domain     string `json:"domain,omitempty" jsonschema:"Filter by catalog domain"`
}

type ListAssetsOutput struct {
	Assets []AssetOutput `json:"assets"`
}

func (h *AssetHandlers) ListAssets(ctx context.Context, _ *mcp.CallToolRequest, input ListAssetsInput) (*mcp.CallToolResult, ListAssetsOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, ListAssetsOutput{}, err
	}

	status := models.Status(strings.ToUpper(strings.TrimSpace(input.Status)))
	switch status {
	case "", models.StatusValid, models.StatusExpiringSoon, models.StatusExpired:
	default:
		return nil, ListAssetsOutput{}, fmt.Errorf("unknown status %q", input.Status)
	}

	views, err := h.svc.ListAssets(ctx, actor, service.ListFilter{Status: status, Domain: input.Domain})
	if err != nil {
		return nil, ListAssetsOutput{}, fmt.Errorf("failed to list assets: %w", err)
	}

	result := make([]AssetOutput, len(views))
	for i := range views {
		result[i] = assetToOutput(&views[i])
	}
	return nil, ListAssetsOutput{Assets: result}, nil
}

type AssetRefInput struct {
	ActorEmail string `json:"actor_email" jsonschema:"Email of the acting user (required)"`
	Asset      string `json:"asset" jsonschema:"Asset ID or external asset ID (required)"`
}

func (h *AssetHandlers) GetAsset(ctx context.Context, _ *mcp.CallToolRequest, input AssetRefInput) (*mcp.CallToolResult, AssetOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, AssetOutput{}, err
	}
	view, err := h.svc.GetAsset(ctx, actor, input.Asset)
	if err != nil {
		return nil, AssetOutput{}, err
	}
	return nil, assetToOutput(view), nil
}

type RegisterAssetInput struct {
	ActorEmail         string `json:"actor_email" jsonschema:"Email of the acting user (required)"`
	ExternalID         string `json:"external_id" jsonschema:"Company asset ID, unique (required)"`
	SerialNumber       string `json:"serial_number,omitempty" jsonschema:"Manufacturer serial number"`
	Rule               string `json:"rule" jsonschema:"Validity rule topic or ID (required)"`
	LastInspectionDate string `json:"last_inspection_date" jsonschema:"Last inspection date YYYY-MM-DD (required)"`
	OrgUnit            string `json:"org_unit,omitempty" jsonschema:"Org-unit; forced for users and scoped supervisors"`
	SubUnit            string `json:"sub_unit,omitempty" jsonschema:"Sub-unit; forced for users"`
	OwnerEmail         string `json:"owner_email,omitempty" jsonschema:"Owner email; defaults to the acting user"`
}

func (h *AssetHandlers) RegisterAsset(ctx context.Context, _ *mcp.CallToolRequest, input RegisterAssetInput) (*mcp.CallToolResult, AssetOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, AssetOutput{}, err
	}
	inspected, err := parseDate("last_inspection_date", input.LastInspectionDate)
	if err != nil {
		return nil, AssetOutput{}, err
	}

	view, err := h.svc.CreateAsset(ctx, actor, service.NewAsset{
		ExternalID:         input.ExternalID,
		SerialNumber:       input.SerialNumber,
		Rule:               input.Rule,
		LastInspectionDate: inspected,
		OrgUnit:            input.OrgUnit,
		SubUnit:            input.SubUnit,
		OwnerEmail:         input.OwnerEmail,
	})
	if err != nil {
		return nil, AssetOutput{}, fmt.Errorf("failed to register asset: %w", err)
	}
	return nil, assetToOutput(view), nil
}

type UpdateAssetInput struct {
	ActorEmail         string  `json:"actor_email" jsonschema:"Email of the acting user (required)"`
	Asset              string  `json:"asset" jsonschema:"Asset ID or external asset ID (required)"`
	ExternalID         *string `json:"external_id,omitempty" jsonschema:"New external asset ID"`
	SerialNumber       *string `json:"serial_number,omitempty" jsonschema:"New serial number"`
	RuleID             *string `json:"rule_id,omitempty" jsonschema:"New validity rule ID"`
	LastInspectionDate *string `json:"last_inspection_date,omitempty" jsonschema:"New inspection date YYYY-MM-DD"`
	OrgUnit            *string `json:"org_unit,omitempty" jsonschema:"New org-unit"`
	SubUnit            *string `json:"sub_unit,omitempty" jsonschema:"New sub-unit"`
	OwnerEmail         *string `json:"owner_email,omitempty" jsonschema:"New owner email"`
}

func (h *AssetHandlers) UpdateAsset(ctx context.Context, _ *mcp.CallToolRequest, input UpdateAssetInput) (*mcp.CallToolResult, AssetOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, AssetOutput{}, err
	}

	upd := models.AssetUpdate{
		ExternalID:   input.ExternalID,
		SerialNumber: input.SerialNumber,
		OrgUnit:      input.OrgUnit,
		SubUnit:      input.SubUnit,
		OwnerEmail:   input.OwnerEmail,
	}
	if input.RuleID != nil {
		id, err := uuid.Parse(*input.RuleID)
		if err != nil {
			return nil, AssetOutput{}, fmt.Errorf("invalid rule_id: %w", err)
		}
		upd.RuleID = &id
	}
	if input.LastInspectionDate != nil {
		inspected, err := parseDate("last_inspection_date", *input.LastInspectionDate)
		if err != nil {
			return nil, AssetOutput{}, err
		}
		upd.LastInspectionDate = &inspected
	}

	view, err := h.svc.UpdateAsset(ctx, actor, input.Asset, upd)
	if err != nil {
		return nil, AssetOutput{}, fmt.Errorf("failed to update asset: %w", err)
	}
	return nil, assetToOutput(view), nil
}

type RenewAssetInput struct {
	ActorEmail     string `json:"actor_email" jsonschema:"Email of the acting user (required)"`
	Asset          string `json:"asset" jsonschema:"Asset ID or external asset ID (required)"`
	InspectionDate string `json:"inspection_date,omitempty" jsonschema:"Date of the new inspection YYYY-MM-DD (default today)"`
}

func (h *AssetHandlers) RenewAsset(ctx context.Context, _ *mcp.CallToolRequest, input RenewAssetInput) (*mcp.CallToolResult, AssetOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, AssetOutput{}, err
	}

	inspected := time.Now()
	if input.InspectionDate != "" {
		if inspected, err = parseDate("inspection_date", input.InspectionDate); err != nil {
			return nil, AssetOutput{}, err
		}
	}

	view, err := h.svc.RenewAsset(ctx, actor, input.Asset, inspected)
	if err != nil {
		return nil, AssetOutput{}, fmt.Errorf("failed to renew asset: %w", err)
	}
	return nil, assetToOutput(view), nil
}

type DeleteOutput struct {
	Deleted int64 `json:"deleted"`
}

func (h *AssetHandlers) DeleteAsset(ctx context.Context, _ *mcp.CallToolRequest, input AssetRefInput) (*mcp.CallToolResult, DeleteOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, DeleteOutput{}, err
	}
	if err := h.svc.DeleteAsset(ctx, actor, input.Asset); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil, DeleteOutput{Deleted: 1}, nil
}
