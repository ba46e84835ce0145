package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const tickInterval = 250 * time.Millisecond

// frameMsg carries an engine snapshot into the bubbletea program.
type frameMsg struct {
	snap Snapshot
}

type tickMsg struct{}

// programRenderer forwards engine snapshots to a running program.
type programRenderer struct {
	program *tea.Program
}

func (r programRenderer) Render(s Snapshot) {
	r.program.Send(frameMsg{snap: s})
}

type styles struct {
	base      lipgloss.Style
	header    lipgloss.Style
	title     lipgloss.Style
	subtitle  lipgloss.Style
	status    lipgloss.Style
	muted     lipgloss.Style
	accent    lipgloss.Style
	danger    lipgloss.Style
	warning   lipgloss.Style
	chip      lipgloss.Style
	container lipgloss.Style
}

var ui = styles{
	base: lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")),
	container: lipgloss.NewStyle().Padding(0, 1),
	header:    lipgloss.NewStyle().Padding(0, 1),
	title:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	status:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	chip:      lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Padding(0, 1),
}

// model draws engine snapshots and turns key presses into actions. It owns
// no application state of its own; selection and ordering come from the
// engine.
type model struct {
	table    table.Model
	spinner  spinner.Model
	help     help.Model
	savedBar progress.Model
	keys     keyMap
	input    *actionQueue
	snap     Snapshot
	targets  int
	width    int
	height   int

	activeStyles table.Styles
	idleStyles   table.Styles
}

func newModel(input *actionQueue, root string, targets int) model {
	t := table.New(
		table.WithColumns(tableColumns(60)),
		table.WithFocused(true),
	)

	active := table.DefaultStyles()
	active.Header = active.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		BorderBottom(true).
		Bold(true)
	active.Selected = active.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	idle := active
	idle.Selected = lipgloss.NewStyle()
	t.SetStyles(idle)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return model{
		table:        t,
		spinner:      sp,
		help:         help.New(),
		savedBar:     progress.New(progress.WithDefaultGradient()),
		keys:         newKeyMap(),
		input:        input,
		snap:         Snapshot{Root: root, Selected: -1, Scanning: true},
		targets:      targets,
		activeStyles: active,
		idleStyles:   idle,
	}
}

func tableColumns(width int) []table.Column {
	modifiedWidth := 10
	sizeWidth := 12
	pathWidth := max(width-modifiedWidth-sizeWidth-8, 20)
	return []table.Column{
		{Title: "Path", Width: pathWidth},
		{Title: "Modified", Width: modifiedWidth},
		{Title: "Size", Width: sizeWidth},
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.updateLayout(msg.Width, msg.Height)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tickMsg:
		m.input.Push(tickAction{})
		cmds = append(cmds, tickCmd())
	case frameMsg:
		m.snap = msg.snap
		m.setTableRows()
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			break
		}
		a, ok := m.keys.action(msg)
		if !ok {
			break
		}
		m.input.Push(a)
		if _, quit := a.(quitAction); quit {
			return m, tea.Quit
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading…"
	}

	content := ui.base.Render(m.table.View())
	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		content,
		m.statusView(),
		m.footerView(),
	)
	return ui.container.Render(view)
}

func (m *model) updateLayout(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	width = max(width, 60)
	height = max(height, 12)
	if m.width == width && m.height == height {
		return
	}
	m.width = width
	m.height = height

	m.table.SetColumns(tableColumns(width))

	headerHeight := lipgloss.Height(m.headerView())
	statusHeight := lipgloss.Height(m.statusView())
	footerHeight := lipgloss.Height(m.footerView())
	available := max(height-headerHeight-statusHeight-footerHeight-4, 5)
	m.table.SetHeight(available)
	m.table.SetWidth(width - 4)
	m.savedBar.Width = max(width-40, 20)
}

func (m *model) setTableRows() {
	rows := make([]table.Row, 0, len(m.snap.Rows))
	for _, row := range m.snap.Rows {
		path := displayPath(m.snap.Root, row.Path)
		if badge := statusBadge(row.Status); badge != "" {
			path = badge + " " + path
		}
		rows = append(rows, table.Row{
			path,
			formatAge(row),
			formatSize(row),
		})
	}
	m.table.SetRows(rows)

	if m.snap.Selected < 0 {
		m.table.SetStyles(m.idleStyles)
		m.table.SetCursor(0)
		return
	}
	m.table.SetStyles(m.activeStyles)
	m.table.SetCursor(m.snap.Selected)
}

func (m model) headerView() string {
	title := ui.title.Render(appName)
	chips := []string{title, ui.chip.Render(fmt.Sprintf("targets: %d", m.targets))}
	if m.snap.DryRun {
		chips = append(chips, ui.chip.Render("dry run"))
	}
	line := strings.Join(chips, " ")
	subtitle := ui.subtitle.Render("Reclaim space from build artifacts")
	root := ui.muted.Render(fmt.Sprintf("Root: %s", m.snap.Root))
	return ui.header.Render(lipgloss.JoinVertical(lipgloss.Left, line, lipgloss.JoinHorizontal(lipgloss.Left, subtitle, " · ", root)))
}

func (m model) statusView() string {
	var scan string
	if m.snap.Scanning {
		scan = fmt.Sprintf("%s Scanning… found %d", m.spinner.View(), len(m.snap.Rows))
	} else {
		scan = fmt.Sprintf("Found %d in %s", m.snap.Found, m.snap.ScanElapsed.Truncate(10*time.Millisecond))
	}

	parts := []string{
		scan,
		fmt.Sprintf("Releasable: %s", humanize.IBytes(m.snap.Releasable)),
		fmt.Sprintf("Saved: %s", humanize.IBytes(m.snap.Saved)),
	}
	if m.snap.Sorted {
		parts = append(parts, fmt.Sprintf("Sort: %s %s", m.snap.SortColumn, sortArrow(m.snap.SortDescending)))
	}
	lines := []string{ui.status.Render(strings.Join(parts, " · "))}

	if total := m.snap.Saved + m.snap.Releasable; total > 0 {
		percent := float64(m.snap.Saved) / float64(total)
		lines = append(lines, ui.muted.Render(m.savedBar.ViewAs(percent)))
	}
	if m.snap.Err != "" {
		lines = append(lines, ui.danger.Render(fmt.Sprintf("Error: %s", m.snap.Err)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) footerView() string {
	return m.help.View(m.keys)
}

func sortArrow(descending bool) string {
	if descending {
		return "↓"
	}
	return "↑"
}
