package main

import (
	"context"
	"fmt"
	"strings"

	"hidectl/internal/engine"
	"hidectl/internal/models"
	"hidectl/internal/ui"
	"hidectl/internal/ui/components"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Messages
type viewMsg struct {
	view *models.ViewState
}

type statusMsg struct {
	status engine.Status
}

type snapshotMsg struct {
	changed bool
	hidden  int
	err     error
}

type toggleErrMsg struct {
	err error
}

// snapshotFunc records the device hide-list in history
type snapshotFunc func(ctx context.Context) (changed bool, hidden int, err error)

// Model is the main application model
type Model struct {
	engine   *engine.Engine
	snapshot snapshotFunc

	// UI Components
	appList   *components.AppList
	spinner   spinner.Model
	help      help.Model
	keys      ui.KeyMap
	textInput textinput.Model

	// State
	status    string
	statusTyp string // Notification kind; empty renders plain text
	loading   bool
	searching bool
	showHelp  bool
	width     int
	height    int
}

// NewModel creates the TUI model on top of eng
func NewModel(eng *engine.Engine, snapshot snapshotFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.PendingStyle

	ti := textinput.New()
	ti.Placeholder = "label or package"
	ti.Prompt = "/ "
	ti.PromptStyle = ui.SearchPromptStyle
	ti.CharLimit = 128
	ti.Width = 40

	return &Model{
		engine:    eng,
		snapshot:  snapshot,
		appList:   components.NewAppList(),
		spinner:   s,
		help:      help.New(),
		keys:      ui.DefaultKeyMap(),
		textInput: ti,
		status:    "Loading apps...",
		loading:   true,
		width:     80,
		height:    24,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh)
}

func (m *Model) refresh() tea.Msg {
	m.engine.Refresh()
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case viewMsg:
		m.applyView(msg.view)

	case statusMsg:
		m.applyStatus(msg.status)

	case snapshotMsg:
		switch {
		case msg.err != nil:
			m.setStatus("error", fmt.Sprintf("Snapshot failed: %v", msg.err))
		case msg.changed:
			m.setStatus("success", fmt.Sprintf("Snapshot recorded (%d hidden)", msg.hidden))
		default:
			m.setStatus("", "No changes since last snapshot")
		}

	case toggleErrMsg:
		m.setStatus("error", msg.err.Error())
	}

	return m, nil
}

// applyView shows v unless a newer view is already shown
func (m *Model) applyView(v *models.ViewState) {
	if v == nil || v.Version < m.appList.Rows.Version {
		return
	}
	m.appList.SetView(v)
}

func (m *Model) applyStatus(s engine.Status) {
	if s.Op == engine.OpReload {
		m.loading = false
	}
	switch s.Kind {
	case engine.StatusError:
		m.setStatus("error", s.Text())
	case engine.StatusWarning:
		m.setStatus("warning", s.Text())
	default:
		m.setStatus("success", s.Text())
	}
}

func (m *Model) setStatus(typ, text string) {
	m.statusTyp = typ
	m.status = text
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Escape) {
			m.showHelp = false
			return m, nil
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.appList.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.appList.MoveDown()
	case key.Matches(msg, m.keys.PageUp):
		m.appList.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.appList.PageDown()
	case key.Matches(msg, m.keys.Home):
		m.appList.GoToFirst()
	case key.Matches(msg, m.keys.End):
		m.appList.GoToLast()
	case key.Matches(msg, m.keys.Toggle):
		return m, m.handleToggle()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.textInput.SetValue(m.appList.Rows.Filter)
		m.textInput.CursorEnd()
		return m, m.textInput.Focus()
	case key.Matches(msg, m.keys.Escape):
		if m.appList.Rows.Filter != "" {
			m.setFilter("")
		}
	case key.Matches(msg, m.keys.Refresh):
		m.setStatus("", "Refreshing...")
		if m.loading {
			return m, m.refresh
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.refresh)
	case key.Matches(msg, m.keys.Snapshot):
		return m, m.recordSnapshot
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	}
	return m, nil
}

// handleToggle flips the row under the cursor. The optimistic view is
// published synchronously, so it is read back from the engine here.
func (m *Model) handleToggle() tea.Cmd {
	cur, ok := m.appList.Current()
	if !ok {
		return nil
	}
	if err := m.engine.Toggle(cur.PackageID, !cur.Hidden()); err != nil {
		return func() tea.Msg { return toggleErrMsg{err: err} }
	}
	m.applyView(m.engine.Snapshot())
	return nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.textInput.Blur()
		m.textInput.SetValue("")
		m.setFilter("")
		m.setStatus("", "Search cancelled")
		return m, nil

	case tea.KeyEnter:
		m.searching = false
		m.textInput.Blur()
		v := m.appList.Rows
		if v.Filter == "" {
			m.setStatus("", fmt.Sprintf("Showing all %d apps", v.Len()))
		} else {
			m.setStatus("", fmt.Sprintf("Showing %d matching apps", v.Len()))
		}
		return m, nil

	case tea.KeyUp:
		m.appList.MoveUp()
		return m, nil

	case tea.KeyDown:
		m.appList.MoveDown()
		return m, nil

	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		m.setFilter(m.textInput.Value())
		return m, cmd
	}
}

func (m *Model) setFilter(text string) {
	m.engine.SetFilter(text)
	m.applyView(m.engine.Snapshot())
}

func (m *Model) recordSnapshot() tea.Msg {
	if m.snapshot == nil {
		return snapshotMsg{err: fmt.Errorf("history is not configured")}
	}
	ctx, cancel := context.WithTimeout(context.Background(), engine.DefaultTimeout)
	defer cancel()
	changed, hidden, err := m.snapshot(ctx)
	return snapshotMsg{changed: changed, hidden: hidden, err: err}
}

func (m *Model) updateListSize() {
	m.appList.Width = max(30, m.width-4)
	m.appList.Height = max(5, m.height-10)
}

func (m *Model) View() string {
	if m.showHelp {
		return ui.AppStyle.Render(m.renderHeader() + "\n" + m.renderHelp())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.searching || m.appList.Rows.Filter != "" {
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
	}
	b.WriteString(m.appList.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(ui.HelpBarStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return ui.AppStyle.Render(b.String())
}

func (m *Model) renderHeader() string {
	title := ui.TitleStyle.Render("hidectl")
	ver := ui.VersionStyle.Render("v" + version)
	return ui.HeaderStyle.Render(title + "  " + ver)
}

func (m *Model) renderStatusBar() string {
	status := m.status
	if m.loading {
		status = m.spinner.View() + " " + status
	}

	styled := status
	if m.statusTyp != "" {
		styled = ui.RenderNotification(m.statusTyp, status)
	}
	return ui.StatusBarStyle.Render(styled)
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(ui.PanelTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				ui.HelpKeyStyle.Width(10).Render(h.Key),
				ui.HelpDescStyle.Render(h.Desc),
			))
		}
		b.WriteString("\n")
	}
	b.WriteString(ui.MutedStyle.Render("  Press ? or esc to close"))
	return b.String()
}
