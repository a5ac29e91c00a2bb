// ABOUTME: Validity catalog MCP tool handlers
// ABOUTME: Implements list_rules, add_rule, update_rule and delete_rule tools
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CatalogHandlers struct {
	svc *service.Service
}

func NewCatalogHandlers(svc *service.Service) *CatalogHandlers {
	return &CatalogHandlers{svc: svc}
}

type RuleOutput struct {
	ID                 string `json:"id"`
	Domain             string `json:"domain"`
	Topic              string `json:"topic"`
	ValidityWindowDays int    `json:"validity_window_days"`
}

func ruleToOutput(r *models.ValidityRule) RuleOutput {
	return RuleOutput{
		ID:                 r.ID.String(),
		Domain:             r.Domain,
		Topic:              r.Topic,
		ValidityWindowDays: r.ValidityWindowDays,
	}
}

type ListRulesInput struct {
	Domain string `json:"domain,omitempty" jsonschema:"Only rules in this domain"`
}

type ListRulesOutput struct {
	Rules []RuleOutput `json:"rules"`
}

func (h *CatalogHandlers) ListRules(ctx context.Context, _ *mcp.CallToolRequest, input ListRulesInput) (*mcp.CallToolResult, ListRulesOutput, error) {
	rules, err := h.svc.ListRules(ctx, input.Domain)
	if err != nil {
		return nil, ListRulesOutput{}, fmt.Errorf("failed to list rules: %w", err)
	}
	result := make([]RuleOutput, len(rules))
	for i := range rules {
		result[i] = ruleToOutput(&rules[i])
	}
	return nil, ListRulesOutput{Rules: result}, nil
}

type AddRuleInput struct {
	ActorEmail         string `json:"actor_email" jsonschema:"Email of the acting admin (required)"`
	Domain             string `json:"domain" jsonschema:"QUALITY, SAFETY, LOGISTICS, LAB or DRIVING (required)"`
	Topic              string `json:"topic" jsonschema:"Unique topic name (required)"`
	ValidityWindowDays int    `json:"validity_window_days" jsonschema:"Validity window in days, at least 1 (required)"`
}

func (h *CatalogHandlers) AddRule(ctx context.Context, _ *mcp.CallToolRequest, input AddRuleInput) (*mcp.CallToolResult, RuleOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, RuleOutput{}, err
	}
	rule, err := h.svc.CreateRule(ctx, actor, service.NewRule{
		Domain:             input.Domain,
		Topic:              input.Topic,
		ValidityWindowDays: input.ValidityWindowDays,
	})
	if err != nil {
		return nil, RuleOutput{}, fmt.Errorf("failed to add rule: %w", err)
	}
	return nil, ruleToOutput(rule), nil
}

type UpdateRuleInput struct {
	ActorEmail         string  `json:"actor_email" jsonschema:"Email of the acting admin (required)"`
	Rule               string  `json:"rule" jsonschema:"Rule ID or topic (required)"`
	Domain             *string `json:"domain,omitempty" jsonschema:"New domain"`
	Topic              *string `json:"topic,omitempty" jsonschema:"New topic"`
	ValidityWindowDays *int    `json:"validity_window_days,omitempty" jsonschema:"New validity window; existing assets keep their dates until renewed"`
}

func (h *CatalogHandlers) UpdateRule(ctx context.Context, _ *mcp.CallToolRequest, input UpdateRuleInput) (*mcp.CallToolResult, RuleOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, RuleOutput{}, err
	}
	rule, err := h.svc.UpdateRule(ctx, actor, input.Rule, service.RuleUpdate{
		Domain:             input.Domain,
		Topic:              input.Topic,
		ValidityWindowDays: input.ValidityWindowDays,
	})
	if err != nil {
		return nil, RuleOutput{}, fmt.Errorf("failed to update rule: %w", err)
	}
	return nil, ruleToOutput(rule), nil
}

type DeleteRuleInput struct {
	ActorEmail string `json:"actor_email" jsonschema:"Email of the acting admin (required)"`
	Rule       string `json:"rule" jsonschema:"Rule ID or topic (required)"`
}

func (h *CatalogHandlers) DeleteRule(ctx context.Context, _ *mcp.CallToolRequest, input DeleteRuleInput) (*mcp.CallToolResult, DeleteOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, DeleteOutput{}, err
	}
	if err := h.svc.DeleteRule(ctx, actor, input.Rule); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete rule: %w", err)
	}
	return nil, DeleteOutput{Deleted: 1}, nil
}
