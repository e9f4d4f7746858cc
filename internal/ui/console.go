package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/model"
)

// Console renders the selected huts once to a writer and returns. It is
// the non-interactive fallback when stdout is not a terminal.
type Console struct {
	out io.Writer
}

// NewConsole builds the console toolkit.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Name implements Toolkit.
func (c *Console) Name() string { return ToolkitConsole }

// Run refreshes availability for the selected huts and prints a table.
func (c *Console) Run(ctx context.Context, m *model.Model) error {
	ids := m.Selected()
	if len(ids) == 0 {
		ids = m.Catalog().IDs()
	}
	if err := m.UpdateResults(ctx, ids, nil); err != nil {
		return err
	}

	fmt.Fprintln(c.out, RenderTable(m, ids))

	for _, msg := range m.HutErrors() {
		fmt.Fprintf(c.out, "warning: %s\n", msg)
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	staleStyle  = lipgloss.NewStyle().Faint(true)
)

// RenderTable formats the availability of the given huts as a plain
// text table. Stale rows are dimmed and marked.
func RenderTable(m *model.Model, ids []string) string {
	header := []string{"ID", "NAME", "COUNTRY", "HEIGHT", "DIST KM", "STATUS", "BEDS"}
	for _, room := range availability.RoomTypes() {
		header = append(header, strings.ToUpper(string(room)))
	}

	rows := [][]string{}
	for _, id := range ids {
		info, err := m.Info(id)
		if err != nil {
			continue
		}
		rows = append(rows, tableRow(info))
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(formatRow(header, widths)))
	sb.WriteString("\n")
	for i, row := range rows {
		line := formatRow(row, widths)
		info, _ := m.Info(ids[i])
		if info.Stale {
			line = staleStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func tableRow(info model.HutInfo) []string {
	row := []string{
		info.Hut.ID,
		info.Hut.Name,
		info.Hut.Country,
		fmt.Sprintf("%.0f", info.Hut.Height),
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
	return row
}

func statusCell(info model.HutInfo) string {
	s := info.Status.String()
	if info.Stale {
		s += " (stale)"
	}
	return s
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}
	return strings.Join(parts, "  ")
}
