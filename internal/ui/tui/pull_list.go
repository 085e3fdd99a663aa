// Package tui provides interactive terminal UI components using BubbleTea.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/rulesync/internal/compare"
)

// PullAction represents the action to perform after rule selection.
type PullAction int

const (
	// PullActionNone means no action was taken (user quit).
	PullActionNone PullAction = iota
	// PullActionApply means the user wants to apply the selected changes.
	PullActionApply
	// PullActionPreview means the user wants to preview a file's diff.
	PullActionPreview
)

// PullListResult contains the result of the pull list TUI interaction.
type PullListResult struct {
	Action          PullAction
	SelectedEntries []compare.Entry
	PreviewEntry    compare.Entry
}

// pullListKeyMap defines the key bindings for the pull list.
type pullListKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	Preview   key.Binding
	Confirm   key.Binding
	Filter    key.Binding
	ClearFlt  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultPullListKeyMap() pullListKeyMap {
	return pullListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "tab"),
			key.WithHelp("space/tab", "toggle"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p", "enter"),
			key.WithHelp("p/enter", "preview diff"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "apply selected"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearFlt: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// PullListModel is the BubbleTea model for interactive rule selection.
type PullListModel struct {
	table         table.Model
	entries       []compare.Entry
	filtered      []compare.Entry
	selected      map[string]bool // rule path to selected state
	keys          pullListKeyMap
	result        PullListResult
	filter        string
	filtering     bool
	showHelp      bool
	confirmMode   bool
	width         int
	height        int
	quitting      bool
	sourceProject string
	columnWidths  pullListColumnWidths
}

var pullListStyles = struct {
	Title       lipgloss.Style
	Help        lipgloss.Style
	Filter      lipgloss.Style
	FilterInput lipgloss.Style
	Confirm     lipgloss.Style
	Status      lipgloss.Style
	DetailBox   lipgloss.Style
	DetailTitle lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Filter:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	FilterInput: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	Confirm:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Padding(1, 2),
	Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	DetailBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	DetailTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
}

const (
	pullListCheckboxWidth = 3
	pullListPathWidth     = 34
	pullListKindWidth     = 10
	pullListVersionWidth  = 16
	pullListPrioWidth     = 10
	pullListColumnPadding = 2
	pullListColumnCount   = 5
	pullListDetailLines   = 3
	pullListDetailGap     = 1
	pullListDetailHeight  = pullListDetailLines + 1 + 2 // title + content + border
)

type pullListColumnWidths struct {
	path    int
	kind    int
	version int
	prio    int
}

func pullListColumns(totalWidth int) ([]table.Column, pullListColumnWidths) {
	widths := pullListColumnWidths{
		path:    pullListPathWidth,
		kind:    pullListKindWidth,
		version: pullListVersionWidth,
		prio:    pullListPrioWidth,
	}

	if totalWidth > 0 {
		baseTotal := pullListCheckboxWidth + widths.path + widths.kind + widths.version + widths.prio +
			(pullListColumnPadding * pullListColumnCount)
		extra := totalWidth - baseTotal
		if extra > 0 {
			// Give the path column the lion's share of any extra room.
			pathExtra := extra * 2 / 3
			widths.path += pathExtra
			widths.version += extra - pathExtra
		}
	}

	columns := []table.Column{
		{Title: " ", Width: pullListCheckboxWidth},
		{Title: "Rule", Width: widths.path},
		{Title: "Change", Width: widths.kind},
		{Title: "Version", Width: widths.version},
		{Title: "Priority", Width: widths.prio},
	}

	return columns, widths
}

// NewPullListModel creates a new pull list model over pending diff entries.
func NewPullListModel(entries []compare.Entry, sourceProject string) PullListModel {
	columns, columnWidths := pullListColumns(0)

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	// All pending changes start selected.
	selected := make(map[string]bool)
	for _, e := range entries {
		selected[e.Path] = true
	}

	m := PullListModel{
		entries:       entries,
		filtered:      entries,
		selected:      selected,
		keys:          defaultPullListKeyMap(),
		sourceProject: sourceProject,
		columnWidths:  columnWidths,
	}

	rows := m.entriesToRows(entries)

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m.table = t
	return m
}

func versionCell(e compare.Entry) string {
	switch e.Kind {
	case compare.KindNew:
		return e.SourceVersion
	case compare.KindRemoved:
		return e.TargetVersion
	default:
		return fmt.Sprintf("%s → %s", e.TargetVersion, e.SourceVersion)
	}
}

func (m PullListModel) entriesToRows(entries []compare.Entry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		checkbox := "[ ]"
		if m.selected[e.Path] {
			checkbox = "[✓]"
		}

		rows[i] = table.Row{
			checkbox,
			truncateText(e.Path, m.columnWidths.path),
			truncateText(string(e.Kind), m.columnWidths.kind),
			truncateText(versionCell(e), m.columnWidths.version),
			truncateText(string(e.Priority), m.columnWidths.prio),
		}
	}
	return rows
}

func (m *PullListModel) updateColumns(totalWidth int) {
	columns, widths := pullListColumns(totalWidth)
	m.columnWidths = widths
	m.table.SetColumns(columns)
}

func (m PullListModel) detailPanelWidth() int {
	if m.width > 0 {
		return m.width
	}
	return pullListCheckboxWidth + m.columnWidths.path + m.columnWidths.kind +
		m.columnWidths.version + m.columnWidths.prio +
		(pullListColumnPadding * pullListColumnCount)
}

func (m PullListModel) renderDetailPanel() string {
	width := m.detailPanelWidth()
	contentWidth := max(width-4, 10)

	entry := m.cursorEntry()
	description := strings.TrimSpace(entry.Description)
	if description == "" {
		description = "No description available."
	}

	lines := wrapLines(description, contentWidth, pullListDetailLines)
	lines = padLines(lines, pullListDetailLines)

	header := pullListStyles.DetailTitle.Render("Description (selected)")
	content := append([]string{header}, lines...)

	return pullListStyles.DetailBox.Width(width).Render(strings.Join(content, "\n"))
}

// Init implements tea.Model.
func (m PullListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PullListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		newHeight := max(msg.Height-10-pullListDetailHeight-pullListDetailGap, 5)
		m.table.SetHeight(newHeight)
		m.updateColumns(msg.Width)
		m.table.SetRows(m.entriesToRows(m.filtered))

	case tea.KeyMsg:
		if m.confirmMode {
			switch msg.String() {
			case "y", "Y":
				m.result = PullListResult{
					Action:          PullActionApply,
					SelectedEntries: m.selectedEntries(),
				}
				m.quitting = true
				return m, tea.Quit
			case "n", "N", "esc":
				m.confirmMode = false
				return m, nil
			}
			return m, nil
		}

		if m.filtering {
			switch msg.String() {
			case "enter":
				m.filtering = false
				return m, nil
			case "esc":
				m.filter = ""
				m.filtering = false
				m.applyFilter()
				return m, nil
			case "backspace":
				if len(m.filter) > 0 {
					m.filter = m.filter[:len(m.filter)-1]
					m.applyFilter()
				}
				return m, nil
			default:
				if len(msg.String()) == 1 {
					m.filter += msg.String()
					m.applyFilter()
				}
				return m, nil
			}
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			return m, nil

		case key.Matches(msg, m.keys.ClearFlt):
			m.filter = ""
			m.applyFilter()
			return m, nil

		case key.Matches(msg, m.keys.Toggle):
			if len(m.filtered) > 0 {
				entry := m.cursorEntry()
				m.selected[entry.Path] = !m.selected[entry.Path]
				m.table.SetRows(m.entriesToRows(m.filtered))
			}
			return m, nil

		case key.Matches(msg, m.keys.ToggleAll):
			selectedCount := 0
			for _, e := range m.filtered {
				if m.selected[e.Path] {
					selectedCount++
				}
			}
			selectAll := selectedCount < len(m.filtered)/2+1
			for _, e := range m.filtered {
				m.selected[e.Path] = selectAll
			}
			m.table.SetRows(m.entriesToRows(m.filtered))
			return m, nil

		case key.Matches(msg, m.keys.Preview):
			if len(m.filtered) > 0 {
				m.result = PullListResult{
					Action:       PullActionPreview,
					PreviewEntry: m.cursorEntry(),
				}
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, m.keys.Confirm):
			if len(m.selectedEntries()) > 0 {
				m.confirmMode = true
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *PullListModel) applyFilter() {
	if m.filter == "" {
		m.filtered = m.entries
	} else {
		var filtered []compare.Entry
		lowerFilter := strings.ToLower(m.filter)
		for _, e := range m.entries {
			if strings.Contains(strings.ToLower(e.Path), lowerFilter) ||
				strings.Contains(strings.ToLower(string(e.Kind)), lowerFilter) ||
				strings.Contains(strings.ToLower(e.Description), lowerFilter) {
				filtered = append(filtered, e)
			}
		}
		m.filtered = filtered
	}
	m.table.SetRows(m.entriesToRows(m.filtered))
}

func (m PullListModel) cursorEntry() compare.Entry {
	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(m.filtered) {
		return m.filtered[cursor]
	}
	return compare.Entry{}
}

func (m PullListModel) selectedEntries() []compare.Entry {
	var selected []compare.Entry
	for _, e := range m.entries {
		if m.selected[e.Path] {
			selected = append(selected, e)
		}
	}
	return selected
}

// View implements tea.Model.
func (m PullListModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := pullListStyles.Title.Render(fmt.Sprintf("⇣ Pull rules from %s", m.sourceProject))
	b.WriteString(title)
	b.WriteString("\n\n")

	if m.filter != "" || m.filtering {
		filterStr := pullListStyles.Filter.Render("Filter: ")
		filterVal := pullListStyles.FilterInput.Render(m.filter)
		if m.filtering {
			filterVal += "█"
		}
		b.WriteString(filterStr + filterVal + "\n\n")
	}

	if m.confirmMode {
		selectedCount := len(m.selectedEntries())
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
		confirmMsg := fmt.Sprintf("Apply %d change(s)? (y/n)", selectedCount)
		b.WriteString(pullListStyles.Confirm.Render(confirmMsg))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	b.WriteString(m.renderDetailPanel())
	b.WriteString("\n")

	selectedCount := len(m.selectedEntries())
	status := fmt.Sprintf("%d change(s) selected of %d", selectedCount, len(m.filtered))
	if m.filter != "" {
		status = fmt.Sprintf("%d selected, %d of %d shown (filtered)", selectedCount, len(m.filtered), len(m.entries))
	}
	b.WriteString(pullListStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}

	return b.String()
}

func (m PullListModel) renderShortHelp() string {
	keys := []string{
		"↑/↓ navigate",
		"space toggle",
		"a toggle all",
		"p preview",
		"y apply",
		"/ filter",
		"? help",
		"q quit",
	}
	return pullListStyles.Help.Render(strings.Join(keys, " • "))
}

func (m PullListModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down

Selection:
  Space/Tab  Toggle current change
  a          Toggle all changes

Actions:
  p/Enter  Preview diff for current rule
  y        Confirm and apply selected changes

Filter:
  /        Start filtering (by path, change kind, or description)
  Esc      Clear filter
  Enter    Finish filtering

General:
  ?        Toggle full help
  q        Quit without applying`
	return pullListStyles.Help.Render(help)
}

// Result returns the result of the user interaction.
func (m PullListModel) Result() PullListResult {
	return m.result
}

// RunPullList runs the interactive pull list and returns the result.
func RunPullList(entries []compare.Entry, sourceProject string) (PullListResult, error) {
	if len(entries) == 0 {
		return PullListResult{}, nil
	}

	mdl := NewPullListModel(entries, sourceProject)
	finalModel, err := tea.NewProgram(mdl, tea.WithAltScreen()).Run()
	if err != nil {
		return PullListResult{}, err
	}

	if m, ok := finalModel.(PullListModel); ok {
		return m.Result(), nil
	}

	return PullListResult{}, nil
}
