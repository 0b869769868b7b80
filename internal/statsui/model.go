// Package statsui provides the Bubble Tea viewer for a finished run.
package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/trainforge/internal/artifacts"
	"github.com/verte-zerg/trainforge/internal/model"
	"github.com/verte-zerg/trainforge/internal/stats"
)

const (
	tabOverview = iota
	tabEpochs
)

const (
	plotHeight    = 8
	fallbackWidth = 80
	maxWindow     = 50
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// LoadFunc reads the artifacts of a run directory.
type LoadFunc func(dir string) (model.MetricsSeries, model.Summary, error)

// Model implements the Bubble Tea metrics viewer.
type Model struct {
	dir    string
	window int
	load   LoadFunc

	series  model.MetricsSeries
	summary model.Summary
	errMsg  string

	tabs      []string
	activeTab int
	overview  viewport.Model
	epochs    table.Model

	width  int
	height int
}

// NewModel constructs a viewer for the run stored in dir.
func NewModel(dir string, window int) *Model {
	return NewModelWithLoader(dir, window, artifacts.Load)
}

// NewModelWithLoader constructs a viewer that reads artifacts through load.
func NewModelWithLoader(dir string, window int, load LoadFunc) *Model {
	if window < 1 {
		window = 1
	}
	m := &Model{
		dir:      dir,
		window:   window,
		load:     load,
		tabs:     []string{"Overview", "Epochs"},
		overview: viewport.New(0, 0),
		epochs:   newEpochTable(),
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=", "+":
			m.window = minInt(m.window+1, maxWindow)
			m.renderOverview()
			return m, nil
		case "-":
			m.window = maxInt(m.window-1, 1)
			m.renderOverview()
			return m, nil
		case "r":
			m.reload()
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabEpochs {
			m.epochs, cmd = m.epochs.Update(msg)
		} else {
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Window returns the current smoothing window.
func (m *Model) Window() int {
	return m.window
}

func (m *Model) reload() {
	series, summary, err := m.load(m.dir)
	if err != nil {
		m.errMsg = err.Error()
		m.series = model.MetricsSeries{}
		m.summary = model.Summary{}
	} else {
		m.errMsg = ""
		m.series = series
		m.summary = summary
	}
	_, rows := stats.EpochRows(m.series)
	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, table.Row(r))
	}
	m.epochs.SetRows(tableRows)
	m.renderOverview()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = maxInt(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.epochs.SetWidth(m.width)
	m.epochs.SetHeight(maxInt(bodyHeight-1, 1))
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabEpochs {
		m.epochs.Focus()
	} else {
		m.epochs.Blur()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	settings := fmt.Sprintf("Run: %s  window=%d", m.dir, m.window)
	return tabs + "\n" + headerStyle.Render(truncateLine(settings, m.width))
}

func (m *Model) renderBody() string {
	if m.series.Len() == 0 {
		return "No metrics found."
	}
	if m.activeTab == tabEpochs {
		return tableMutedStyle.Render(m.epochs.View())
	}
	return m.overview.View()
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderOverview() {
	if m.series.Len() == 0 {
		m.overview.SetContent("No metrics found.")
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.overview.SetContent(renderOverview(m.summary, m.series, m.window, width))
}

func renderOverview(summary model.Summary, series model.MetricsSeries, window, width int) string {
	valEpoch, valBest := stats.BestEpoch(series.ValLoss, true)
	cards := []string{
		metricCard("Epochs", fmt.Sprintf("%d", summary.TotalEpochs)),
		metricCard("Final Acc", fmt.Sprintf("%.4f", summary.FinalAccuracy)),
		metricCard("Final Loss", fmt.Sprintf("%.4f", summary.FinalLoss)),
		metricCard("Best Val Loss", fmt.Sprintf("%.4f @%d", valBest, valEpoch)),
	}
	var cardBlock string
	if width < 80 {
		cardBlock = strings.Join(cards, "\n")
	} else {
		cardBlock = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, series, window, width, plotHeight, true); err != nil {
		return cardBlock + "\n\n" + fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(cardBlock+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newEpochTable() table.Model {
	columns := []table.Column{
		{Title: "Epoch", Width: 6},
		{Title: "Loss", Width: 9},
		{Title: "Val Loss", Width: 9},
		{Title: "Accuracy", Width: 9},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
