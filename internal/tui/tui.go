// Package tui provides a Bubble Tea viewer for progress snapshots.
package tui

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/session"
	"github.com/fakeyudi/trackhook/internal/snapshot"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	taskStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

type tabID int

const (
	tabSummary tabID = iota
	tabTasks
	tabMilestones
	tabFiles
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Tasks", "Milestones", "Files"}

// Model is the root Bubble Tea model for the viewer.
type Model struct {
	snap      *snapshot.Snapshot
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	oldest    bool // task and milestone order
}

// New creates a viewer model for snap read from filename.
func New(snap *snapshot.Snapshot, filename string) Model {
	return Model{snap: snap, filename: filepath.Base(filename)}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1", "2", "3", "4":
			m.activeTab = tabID(msg.String()[0] - '1')
			return m, nil
		case "s":
			if m.ready && (m.activeTab == tabTasks || m.activeTab == tabMilestones) {
				m.oldest = !m.oldest
				for _, t := range []tabID{tabTasks, tabMilestones} {
					m.viewports[t].SetContent(m.renderTab(t))
					m.viewports[t].GotoTop()
				}
			}
			return m, nil
		}
		if !m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  trackhook  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-4 jump  q quit"
	if m.activeTab == tabTasks || m.activeTab == tabMilestones {
		hint += "  s sort (" + m.orderLabel() + ")"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := max(m.width-lipgloss.Width(hint)-len(pct)-2, 1)
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

func (m *Model) initViewports() {
	// title, tab row and status bar take one row each
	vpHeight := max(m.height-3, 1)
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) orderLabel() string {
	if m.oldest {
		return "oldest first"
	}
	return "newest first"
}

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabTasks:
		return m.renderTasks()
	case tabMilestones:
		return m.renderMilestones()
	case tabFiles:
		return m.renderFiles()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func (m *Model) renderSummary() string {
	s := m.snap
	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}

	sb.WriteString(heading("Session"))
	row("Since:", s.SessionStart)
	row("Updated:", s.UpdatedAt.Format(activity.TimeOfDay))
	row("Actions:", countStyle.Render(fmt.Sprint(s.ActionCount)))
	row("Interval:", fmt.Sprintf("every %d meaningful actions", s.UpdateInterval))

	sb.WriteString(heading("Activity today"))
	c := s.Counts
	for _, r := range []struct {
		label string
		n     int
	}{
		{"Edits:", c.Edits},
		{"Writes:", c.Writes},
		{"Commands:", c.Commands},
		{"Tasks:", c.Tasks},
		{"Reads:", c.Reads},
		{"Other:", c.Other},
	} {
		row(r.label, countStyle.Render(fmt.Sprint(r.n)))
	}
	row("Total:", fmt.Sprint(c.Total()))
	return sb.String()
}

func (m *Model) renderTasks() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Completed Tasks (%d, %s)", len(m.snap.Tasks), m.orderLabel())))
	if len(m.snap.Tasks) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	tasks := ordered(m.snap.Tasks, m.oldest)
	for _, t := range tasks {
		line := fmt.Sprintf("  %s  %s", timeStyle.Render(t.Time), taskStyle.Render("#"+t.ID))
		if t.Subject != "" {
			line += "  " + t.Subject
		}
		sb.WriteString(line + "\n\n")
	}
	return sb.String()
}

func (m *Model) renderMilestones() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Milestones (%d, %s)", len(m.snap.Milestones), m.orderLabel())))
	if len(m.snap.Milestones) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, ms := range ordered(m.snap.Milestones, m.oldest) {
		sb.WriteString(fmt.Sprintf("  %s  %s\n\n", timeStyle.Render(ms.Time), ms.Description))
	}
	return sb.String()
}

func (m *Model) renderFiles() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Files Touched (%d)", len(m.snap.Files))))
	if len(m.snap.Files) == 0 {
		sb.WriteString(dimStyle.Render("  (none yet)") + "\n")
		return sb.String()
	}
	// The viewer scrolls, so it lists every file rather than the capped set.
	for _, f := range m.snap.Files {
		sb.WriteString(bullet(f))
	}
	return sb.String()
}

// ordered returns items oldest first when oldest is set, otherwise newest
// first. Snapshots store both lists in chronological order.
func ordered[T snapshot.Task | session.Milestone](items []T, oldest bool) []T {
	out := slices.Clone(items)
	if !oldest {
		slices.Reverse(out)
	}
	return out
}

// Run starts the viewer for snap.
func Run(snap *snapshot.Snapshot, filename string) error {
	p := tea.NewProgram(New(snap, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
