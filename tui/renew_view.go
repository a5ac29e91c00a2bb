// ABOUTME: Renewal form for TUI
// ABOUTME: Records a new inspection date for the selected asset
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderRenewView() string {
	a := m.selected()
	if a == nil {
		return "No asset selected"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("RENEW #" + a.ExternalID))
	s.WriteString("\n\n")
	s.WriteString("Inspection date: ")
	s.WriteString(m.renewInput.View())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(m.renderRenewHelp())

	return s.String()
}

func (m Model) renderRenewHelp() string {
	help := []string{
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m *Model) initRenewInput() tea.Cmd {
	input := textinput.New()
	input.Placeholder = "YYYY-MM-DD"
	input.CharLimit = 10
	input.SetValue(time.Now().Format("2006-01-02"))
	m.renewInput = input
	m.err = nil
	return m.renewInput.Focus()
}

func (m Model) handleRenewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		m.viewMode = ViewDetail
		return m, nil
	case "enter":
		if err := m.saveRenewal(); err != nil {
			m.err = err
			return m, nil
		}
		m.viewMode = ViewList
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.renewInput, cmd = m.renewInput.Update(msg)
	return m, cmd
}

func (m *Model) saveRenewal() error {
	a := m.selected()
	if a == nil {
		return fmt.Errorf("no asset selected")
	}
	inspected, err := time.Parse("2006-01-02", strings.TrimSpace(m.renewInput.Value()))
	if err != nil {
		return fmt.Errorf("inspection date must be YYYY-MM-DD")
	}
	renewed, err := m.svc.RenewAsset(context.Background(), m.actor, a.ID.String(), inspected)
	if err != nil {
		return err
	}
	m.message = fmt.Sprintf("Renewed #%s, now expires %s", renewed.ExternalID, renewed.ExpirationDate.Format("2006-01-02"))
	return nil
}
