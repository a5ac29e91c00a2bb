// ABOUTME: Validity catalog CLI commands
// ABOUTME: Adds, lists, updates and deletes validity rules
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/expirytrack/service"
)

func (a *app) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the validity catalog",
	}
	cmd.AddCommand(a.rulesAddCmd(), a.rulesListCmd(), a.rulesUpdateCmd(), a.rulesDeleteCmd())
	return cmd
}

func (a *app) rulesAddCmd() *cobra.Command {
	var in service.NewRule

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a validity rule (Admin only)",
		Example: `  expirytrack --as admin@example.com rules add --domain SAFETY --topic Ladder --days 365`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			rule, err := a.svc.CreateRule(ctx, actor, in)
			if err != nil {
				return fmt.Errorf("failed to add rule: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Rule created: %s/%s, %d days (ID: %s)\n",
				rule.Domain, rule.Topic, rule.ValidityWindowDays, rule.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Domain, "domain", "", "QUALITY, SAFETY, LOGISTICS, LAB or DRIVING (required)")
	cmd.Flags().StringVar(&in.Topic, "topic", "", "Unique topic (required)")
	cmd.Flags().IntVar(&in.ValidityWindowDays, "days", 0, "Validity window in days (required)")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("days")
	return cmd
}

func (a *app) rulesListCmd() *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List validity rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := a.svc.ListRules(cmd.Context(), domain)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No rules found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "DOMAIN\tTOPIC\tDAYS\tID")
			_, _ = fmt.Fprintln(w, "------\t-----\t----\t--")
			for _, r := range rules {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Domain, r.Topic, r.ValidityWindowDays, r.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Only rules in this domain")
	return cmd
}

func (a *app) rulesUpdateCmd() *cobra.Command {
	var domain, topic string
	var days int

	cmd := &cobra.Command{
		Use:   "update <rule>",
		Short: "Update a validity rule by topic or ID (Admin only)",
		Long:  "Update a validity rule. Existing assets keep their expiration dates until renewed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}

			var upd service.RuleUpdate
			if cmd.Flags().Changed("domain") {
				upd.Domain = &domain
			}
			if cmd.Flags().Changed("topic") {
				upd.Topic = &topic
			}
			if cmd.Flags().Changed("days") {
				upd.ValidityWindowDays = &days
			}

			rule, err := a.svc.UpdateRule(ctx, actor, args[0], upd)
			if err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Rule updated: %s/%s, %d days\n",
				rule.Domain, rule.Topic, rule.ValidityWindowDays)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "New domain")
	cmd.Flags().StringVar(&topic, "topic", "", "New topic")
	cmd.Flags().IntVar(&days, "days", 0, "New validity window in days")
	return cmd
}

func (a *app) rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule>",
		Short: "Delete a validity rule no asset uses (Admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			if err := a.svc.DeleteRule(ctx, actor, args[0]); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Rule deleted: %s\n", args[0])
			return nil
		},
	}
}
