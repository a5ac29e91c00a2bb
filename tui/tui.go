// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Provides an interactive asset board with status tabs, renewals and deletes
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/service"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewRenew
	ViewDashboard
	ViewConfirmDelete
)

// Tab selects which status tier the board lists
type Tab int

const (
	TabAll Tab = iota
	TabExpiring
	TabExpired
)

var tabNames = []string{"All", "Expiring soon", "Expired"}

func (t Tab) filter() service.ListFilter {
	switch t {
	case TabExpiring:
		return service.ListFilter{Status: models.StatusExpiringSoon}
	case TabExpired:
		return service.ListFilter{Status: models.StatusExpired}
	}
	return service.ListFilter{}
}

// Model is the main bubbletea model
type Model struct {
	svc      *service.Service
	actor    models.Actor
	viewMode ViewMode
	tab      Tab

	// List view state
	assets      []models.AssetView
	selectedRow int

	// Renew form state
	renewInput textinput.Model

	// Status line shown under the board
	message string

	// UI state
	width  int
	height int
	err    error
}

// NewModel creates a board for the given actor and loads the first tab
func NewModel(svc *service.Service, actor models.Actor) Model {
	m := Model{
		svc:      svc,
		actor:    actor,
		viewMode: ViewList,
		tab:      TabAll,
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	assets, err := m.svc.ListAssets(context.Background(), m.actor, m.tab.filter())
	if err != nil {
		m.err = err
		m.assets = nil
		return
	}
	m.err = nil
	m.assets = assets
	if m.selectedRow >= len(m.assets) {
		m.selectedRow = max(len(m.assets)-1, 0)
	}
}

func (m Model) selected() *models.AssetView {
	if m.selectedRow < 0 || m.selectedRow >= len(m.assets) {
		return nil
	}
	return &m.assets[m.selectedRow]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewRenew:
		return m.renderRenewView()
	case ViewDashboard:
		return m.renderDashboardView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.viewMode != ViewRenew {
			return m, tea.Quit
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewRenew:
		return m.handleRenewKeys(msg)
	case ViewDashboard:
		return m.handleDashboardKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

var statusStyles = map[models.Status]lipgloss.Style{
	models.StatusValid:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	models.StatusExpiringSoon: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	models.StatusExpired:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}
