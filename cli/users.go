// ABOUTME: User directory CLI commands
// ABOUTME: Registers users with their role and org placement and lists the directory
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/service"
)

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the user directory",
	}
	cmd.AddCommand(a.usersAddCmd(), a.usersListCmd())
	return cmd
}

func (a *app) usersAddCmd() *cobra.Command {
	var in service.NewUser
	var role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user (the first user must be an Admin)",
		Example: `  expirytrack users add --email admin@example.com --role Admin
  expirytrack --as admin@example.com users add --email dana@example.com --role User --org-unit North --sub-unit "Lab 1"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parsed, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			in.Role = parsed

			// Bootstrap: without --as the service only accepts the first admin.
			var actor *models.Actor
			if a.actorEmail != "" {
				resolved, err := a.actor(ctx)
				if err != nil {
					return err
				}
				actor = &resolved
			}

			user, err := a.svc.CreateUser(ctx, actor, in)
			if err != nil {
				return fmt.Errorf("failed to add user: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ User created: %s (%s)\n", user.Email, user.Role)
			if user.OrgUnit != "" {
				_, _ = fmt.Fprintf(out, "  Unit: %s/%s\n", user.OrgUnit, user.SubUnit)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&role, "role", models.RoleNameUser, "Admin, SuperViewer or User")
	cmd.Flags().StringVar(&in.OrgUnit, "org-unit", "", "Org-unit")
	cmd.Flags().StringVar(&in.SubUnit, "sub-unit", "", "Sub-unit")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			users, err := a.svc.ListUsers(ctx, actor)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No users found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "EMAIL\tROLE\tORG-UNIT\tSUB-UNIT")
			_, _ = fmt.Fprintln(w, "-----\t----\t--------\t--------")
			for _, u := range users {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, u.Role, dash(u.OrgUnit), dash(u.SubUnit))
			}
			return w.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
