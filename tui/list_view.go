package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("EXPIRYTRACK"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	if m.message != "" {
		s.WriteString("\n" + m.message + "\n")
	}

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range tabNames {
		label := name
		if Tab(i) == m.tab {
			label = fmt.Sprintf("%s (%d)", name, len(m.assets))
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	columns := []table.Column{
		{Title: "Asset", Width: 12},
		{Title: "Topic", Width: 20},
		{Title: "Unit", Width: 20},
		{Title: "Expires", Width: 10},
		{Title: "Days", Width: 5},
		{Title: "Status", Width: 13},
	}

	rows := make([]table.Row, 0, len(m.assets))
	for _, a := range m.assets {
		rows = append(rows, table.Row{
			a.ExternalID,
			a.Topic,
			a.OrgUnit + "/" + a.SubUnit,
			a.ExpirationDate.Format("2006-01-02"),
			strconv.Itoa(a.DaysRemaining),
			string(a.Status),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"s: Summary",
		"r: Reload",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.assets)-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.selectedRow = 0
		m.message = ""
		m.refresh()
	case "enter":
		if m.selected() != nil {
			m.viewMode = ViewDetail
		}
	case "s":
		m.viewMode = ViewDashboard
	case "r":
		m.message = ""
		m.refresh()
	}

	return m, nil
}
