package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/expirytrack/service"
	"github.com/harperreed/expirytrack/viz"
)

func (m Model) renderDashboardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("SUMMARY"))
	s.WriteString("\n\n")

	// Always across every status, whatever tab is open
	assets, err := m.svc.ListAssets(context.Background(), m.actor, service.ListFilter{})
	if err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(viz.RenderDashboard(viz.GenerateDashboardStats(assets))))
	}

	s.WriteString("\n")
	s.WriteString(m.renderDashboardHelp())

	return s.String()
}

func (m Model) renderDashboardHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	}

	return m, nil
}
