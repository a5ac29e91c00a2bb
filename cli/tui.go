// ABOUTME: TUI subcommand
// ABOUTME: Launches the interactive asset board for the acting user
package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harperreed/expirytrack/tui"
)

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse assets in an interactive board",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor(cmd.Context())
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.NewModel(a.svc, actor), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}
