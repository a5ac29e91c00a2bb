package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	a := m.selected()
	if a == nil {
		return "No asset selected"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("ASSET #" + a.ExternalID))
	s.WriteString("\n\n")

	s.WriteString(m.renderField("Asset ID", a.ExternalID))
	s.WriteString(m.renderField("Serial number", a.SerialNumber))
	s.WriteString(m.renderField("Domain", a.Domain))
	s.WriteString(m.renderField("Topic", a.Topic))
	s.WriteString(m.renderField("Validity (days)", strconv.Itoa(a.ValidityWindowDays)))
	s.WriteString(m.renderField("Owner", a.OwnerEmail))
	s.WriteString(m.renderField("Org-unit", a.OrgUnit))
	s.WriteString(m.renderField("Sub-unit", a.SubUnit))
	s.WriteString(m.renderField("Last inspection", a.LastInspectionDate.Format("2006-01-02")))
	s.WriteString(m.renderField("Expires", a.ExpirationDate.Format("2006-01-02")))
	s.WriteString(m.renderField("Days remaining", strconv.Itoa(a.DaysRemaining)))

	style, ok := statusStyles[a.Status]
	if !ok {
		style = fieldValueStyle
	}
	s.WriteString(fieldLabelStyle.Render("Status:") + " " + style.Render(string(a.Status)) + "\n")

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"n: Renew",
		"x: Delete",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	case "n":
		m.viewMode = ViewRenew
		return m, m.initRenewInput()
	case "x":
		m.viewMode = ViewConfirmDelete
	}

	return m, nil
}
