// ABOUTME: Visualization CLI commands
// ABOUTME: Renders the org graph of assets and the status dashboard
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/harperreed/expirytrack/service"
	"github.com/harperreed/expirytrack/viz"
)

var graphFormats = map[string]graphviz.Format{
	"dot": graphviz.XDOT,
	"svg": graphviz.SVG,
	"png": graphviz.PNG,
}

func (a *app) vizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Visualize assets",
	}
	cmd.AddCommand(a.vizOrgCmd(), a.vizDashboardCmd())
	return cmd
}

func (a *app) vizOrgCmd() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "org",
		Short: "Graph assets under their org-unit and sub-unit, coloured by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, ok := graphFormats[strings.ToLower(format)]
			if !ok {
				return fmt.Errorf("unknown format %q (dot, svg, png)", format)
			}
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			views, err := a.svc.ListAssets(ctx, actor, service.ListFilter{})
			if err != nil {
				return err
			}

			graph, err := viz.GenerateOrgGraph(ctx, views, f)
			if err != nil {
				return err
			}

			if output != "" {
				return os.WriteFile(output, []byte(graph), 0644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), graph)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "dot", "dot, svg or png")
	return cmd
}

func (a *app) vizDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print a status summary of the assets in your scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := a.actor(ctx)
			if err != nil {
				return err
			}
			views, err := a.svc.ListAssets(ctx, actor, service.ListFilter{})
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(viz.GenerateDashboardStats(views)))
			return err
		},
	}
}
