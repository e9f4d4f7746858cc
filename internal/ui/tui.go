package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/model"
)

const (
	defaultTableHeight = 20
	nameColumnWidth    = 28
)

// TUI is the interactive terminal front end.
type TUI struct{}

// NewTUI builds the interactive toolkit.
func NewTUI() *TUI {
	return &TUI{}
}

// Name implements Toolkit.
func (t *TUI) Name() string { return ToolkitTUI }

// Run starts the Bubble Tea program and blocks until the user quits.
func (t *TUI) Run(ctx context.Context, m *model.Model) error {
	program := tea.NewProgram(newTableModel(ctx, m), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// refreshDoneMsg reports a finished availability refresh.
type refreshDoneMsg struct {
	err error
}

// tableModel is the Bubble Tea model for the availability table.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type tableModel struct {
	ctx context.Context
	app *model.Model

	table   table.Model
	spinner spinner.Model

	loading   bool
	statusMsg string
	width     int
	err       error
}

func newTableModel(ctx context.Context, app *model.Model) tableModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := tableModel{
		ctx:     ctx,
		app:     app,
		spinner: sp,
	}
	m.table = m.buildTable()
	return m
}

// Init implements tea.Model.
func (m tableModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m tableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(msg.Height - 6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshDoneMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.statusMsg = "availability updated"
		}
		m.table = m.buildTable()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m tableModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.statusMsg = "updating availability..."
		return m, tea.Batch(m.spinner.Tick, m.refreshCmd())

	case "a":
		m.app.SelectAll()
		m.table = m.buildTable()
		return m, nil

	case "c":
		m.app.ClearSelected()
		m.table = m.buildTable()
		return m, nil

	case "enter":
		if row := m.table.SelectedRow(); row != nil {
			m.app.Select(row[0])
			m.table = m.buildTable()
		}
		return m, nil

	case "backspace":
		if row := m.table.SelectedRow(); row != nil {
			m.app.Deselect(row[0])
			m.table = m.buildTable()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refreshCmd refreshes the selected huts in the background. Completion
// after the program's context is canceled is discarded by the cache, so
// an abandoned refresh cannot corrupt the store.
func (m tableModel) refreshCmd() tea.Cmd {
	ctx, app := m.ctx, m.app
	return func() tea.Msg {
		return refreshDoneMsg{err: app.UpdateSelected(ctx, nil)}
	}
}

func (m tableModel) visibleIDs() []string {
	ids := m.app.Selected()
	if len(ids) == 0 {
		ids = m.app.Catalog().IDs()
	}
	return ids
}

func (m tableModel) buildTable() table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: nameColumnWidth},
		{Title: "Country", Width: 8},
		{Title: "Dist km", Width: 8},
		{Title: "Status", Width: 16},
		{Title: "Beds", Width: 5},
	}
	for _, room := range availability.RoomTypes() {
		columns = append(columns, table.Column{Title: string(room), Width: 10})
	}

	var rows []table.Row
	for _, id := range m.visibleIDs() {
		info, err := m.app.Info(id)
		if err != nil {
			continue
		}
		row := table.Row{
			info.Hut.ID,
			info.Hut.Name,
			info.Hut.Country,
			fmt.Sprintf("%.1f", info.Distance/1000),
			statusCell(info),
			fmt.Sprintf("%d", info.Available),
		}
		for _, room := range availability.RoomTypes() {
			if n, ok := info.PerRoom[room]; ok {
				row = append(row, fmt.Sprintf("%d", n))
			} else {
				row = append(row, "-")
			}
		}
		rows = append(rows, row)
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(defaultTableHeight),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Bold(true)
	tbl.SetStyles(styles)
	return tbl
}

// View implements tea.Model.
func (m tableModel) View() string {
	var sb strings.Builder

	title := "chamannas - hut availability"
	dates := m.app.RequestDates()
	if len(dates) > 0 {
		title += fmt.Sprintf("  %s (+%d)", dates[0].Format(availability.DateFormat), len(dates)-1)
	}
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.table.View())
	sb.WriteString("\n")

	switch {
	case m.loading:
		sb.WriteString(m.spinner.View() + " " + m.statusMsg)
	case m.err != nil:
		sb.WriteString("error: " + m.err.Error())
	case m.statusMsg != "":
		sb.WriteString(m.statusMsg)
	}
	sb.WriteString("\n")
	sb.WriteString(staleStyle.Render("r refresh · enter select · backspace deselect · a all · c clear · q quit"))
	return sb.String()
}
