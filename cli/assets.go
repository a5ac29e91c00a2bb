// ABOUTME: Asset CLI commands
// ABOUTME: Registers, lists, updates, renews and deletes tracked assets
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/service"
)

const dateLayout = "2006-01-02"

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD", flag)
	}
	return t, nil
}

func printAsset(out io.Writer, v *models.AssetView) {
	_, _ = fmt.Fprintf(out, "  Rule: %s/%s (%d days)\n", v.Domain, v.Topic, v.ValidityWindowDays)
	_, _ = fmt.Fprintf(out, "  Unit: %s/%s\n", v.OrgUnit, v.SubUnit)
	if v.OwnerEmail != "" {
		_, _ = fmt.Fprintf(out, "  Owner: %s\n", v.OwnerEmail)
	}
	_, _ = fmt.Fprintf(out, "  Expires: %s (%d days, %s)\n", v.ExpirationDate.Format(dateLayout), v.DaysRemaining, v.Status)
}

func (a *app) assetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage tracked assets",
	}
	cmd.AddCommand(
		a.assetsAddCmd(),
		a.assetsListCmd(),
		a.assetsUpdateCmd(),
		a.assetsRenewCmd(),
		a.assetsDeleteCmd(),
		a.assetsPurgeCmd(),
	)
	return cmd
}

func (a *app) assetsAddCmd() *cobra.Command {
	var in service.NewAsset
	var inspected string

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Register an asset",
		Example: `  expirytrack --as dana@example.com assets add --id A-1001 --rule Ladder --inspected 2024-01-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			in.LastInspectionDate, err = parseDate("inspected", inspected)
			if err != nil {
				return err
			}

			view, err := a.svc.CreateAsset(ctx, actor, in)
			if err != nil {
				return fmt.Errorf("failed to add asset: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Asset registered: #%s (ID: %s)\n", view.ExternalID, view.ID)
			printAsset(out, view)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ExternalID, "id", "", "Company asset ID (required)")
	cmd.Flags().StringVar(&in.SerialNumber, "serial", "", "Serial number")
	cmd.Flags().StringVar(&in.Rule, "rule", "", "Validity rule topic or ID (required)")
	cmd.Flags().StringVar(&inspected, "inspected", "", "Last inspection date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&in.OrgUnit, "org-unit", "", "Org-unit (forced for users and scoped supervisors)")
	cmd.Flags().StringVar(&in.SubUnit, "sub-unit", "", "Sub-unit (forced for users)")
	cmd.Flags().StringVar(&in.OwnerEmail, "owner", "", "Owner email (default: the acting user)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("rule")
	_ = cmd.MarkFlagRequired("inspected")
	return cmd
}

func (a *app) assetsListCmd() *cobra.Command {
	var status, domain string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets in your scope with days remaining",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}

			filter := service.ListFilter{
				Status: models.Status(strings.ToUpper(status)),
				Domain: domain,
			}
			views, err := a.svc.ListAssets(ctx, actor, filter)
			if err != nil {
				return fmt.Errorf("failed to list assets: %w", err)
			}

			if len(views) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No assets found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ASSET\tTOPIC\tUNIT\tOWNER\tEXPIRES\tDAYS\tSTATUS")
			_, _ = fmt.Fprintln(w, "-----\t-----\t----\t-----\t-------\t----\t------")
			for _, v := range views {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%s\t%d\t%s\n",
					v.ExternalID, dash(v.Topic), v.OrgUnit, v.SubUnit, dash(v.OwnerEmail),
					v.ExpirationDate.Format(dateLayout), v.DaysRemaining, v.Status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "VALID, EXPIRING_SOON or EXPIRED")
	cmd.Flags().StringVar(&domain, "domain", "", "Only assets whose rule is in this domain")
	return cmd
}

func (a *app) assetsUpdateCmd() *cobra.Command {
	var externalID, serial, rule, owner, inspected, orgUnit, subUnit string

	cmd := &cobra.Command{
		Use:   "update <asset>",
		Short: "Update an asset by external ID or ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var upd models.AssetUpdate
			if flags.Changed("id") {
				upd.ExternalID = &externalID
			}
			if flags.Changed("serial") {
				upd.SerialNumber = &serial
			}
			if flags.Changed("owner") {
				upd.OwnerEmail = &owner
			}
			if flags.Changed("org-unit") {
				upd.OrgUnit = &orgUnit
			}
			if flags.Changed("sub-unit") {
				upd.SubUnit = &subUnit
			}
			if flags.Changed("rule") {
				r, err := a.svc.GetRule(ctx, rule)
				if err != nil {
					return err
				}
				upd.RuleID = &r.ID
			}
			if flags.Changed("inspected") {
				d, err := parseDate("inspected", inspected)
				if err != nil {
					return err
				}
				upd.LastInspectionDate = &d
			}

			view, err := a.svc.UpdateAsset(ctx, actor, args[0], upd)
			if err != nil {
				return fmt.Errorf("failed to update asset: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Asset updated: #%s\n", view.ExternalID)
			printAsset(out, view)
			return nil
		},
	}

	cmd.Flags().StringVar(&externalID, "id", "", "New company asset ID")
	cmd.Flags().StringVar(&serial, "serial", "", "New serial number")
	cmd.Flags().StringVar(&rule, "rule", "", "New validity rule topic or ID")
	cmd.Flags().StringVar(&inspected, "inspected", "", "New last inspection date YYYY-MM-DD")
	cmd.Flags().StringVar(&orgUnit, "org-unit", "", "New org-unit")
	cmd.Flags().StringVar(&subUnit, "sub-unit", "", "New sub-unit")
	cmd.Flags().StringVar(&owner, "owner", "", "New owner email")
	return cmd
}

func (a *app) assetsRenewCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "renew <asset>",
		Short: "Record a new inspection and move the expiration date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}

			inspected := time.Now()
			if date != "" {
				if inspected, err = parseDate("date", date); err != nil {
					return err
				}
			}

			view, err := a.svc.RenewAsset(ctx, actor, args[0], inspected)
			if err != nil {
				return fmt.Errorf("failed to renew asset: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Asset renewed: #%s\n", view.ExternalID)
			printAsset(out, view)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Inspection date YYYY-MM-DD (default: today)")
	return cmd
}

func (a *app) assetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <asset>",
		Short: "Delete an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			if err := a.svc.DeleteAsset(ctx, actor, args[0]); err != nil {
				return fmt.Errorf("failed to delete asset: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Asset deleted: %s\n", args[0])
			return nil
		},
	}
}

func (a *app) assetsPurgeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every asset (Admin only)",
		Long:  "Delete every tracked asset. Rules and users are kept. This cannot be undone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to purge without --force")
			}
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			n, err := a.svc.PurgeAssets(ctx, actor)
			if err != nil {
				return fmt.Errorf("failed to purge assets: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Purged %d assets\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm deleting every asset")
	return cmd
}
