// ABOUTME: Notification MCP tool handler
// ABOUTME: Implements run_notification_check for on-demand daily runs
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/expirytrack/apperr"
	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/notify"
	"github.com/harperreed/expirytrack/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type NotifyHandlers struct {
	svc    *service.Service
	runner *notify.Runner
}

func NewNotifyHandlers(svc *service.Service, runner *notify.Runner) *NotifyHandlers {
	return &NotifyHandlers{svc: svc, runner: runner}
}

type RunCheckInput struct {
	ActorEmail string `json:"actor_email" jsonschema:"Email of the acting admin (required)"`
}

type RunCheckOutput struct {
	RunID      string `json:"run_id"`
	Processed  int    `json:"processed"`
	Due        int    `json:"due"`
	Delivered  int    `json:"delivered"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
}

func (h *NotifyHandlers) RunCheck(ctx context.Context, _ *mcp.CallToolRequest, input RunCheckInput) (*mcp.CallToolResult, RunCheckOutput, error) {
	actor, err := h.svc.Actor(ctx, input.ActorEmail)
	if err != nil {
		return nil, RunCheckOutput{}, err
	}
	if actor.Role != models.RoleAdmin {
		return nil, RunCheckOutput{}, apperr.Unauthorized("only an admin may trigger a notification run")
	}

	summary, err := h.runner.Run(ctx)
	if err != nil {
		return nil, RunCheckOutput{}, fmt.Errorf("notification run failed: %w", err)
	}
	return nil, RunCheckOutput{
		RunID:      summary.RunID.String(),
		Processed:  summary.Processed,
		Due:        summary.Due,
		Delivered:  summary.Delivered,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
		Duplicates: summary.Duplicates,
	}, nil
}
