package components

import (
	"fmt"
	"strings"

	"hidectl/internal/models"
	"hidectl/internal/ui"
)

// AppList renders a published ViewState with a cursor
type AppList struct {
	Rows    *models.ViewState
	Cursor  int
	Width   int
	Height  int
	Focused bool
	Title   string
}

// NewAppList creates a new app list
func NewAppList() *AppList {
	return &AppList{
		Rows:    &models.ViewState{},
		Width:   60,
		Height:  15,
		Focused: true,
		Title:   "Applications",
	}
}

// SetView replaces the rows. The cursor stays on the same package when
// it is still listed, otherwise it is clamped to the new range.
func (l *AppList) SetView(v *models.ViewState) {
	if v == nil {
		v = &models.ViewState{}
	}
	current, ok := l.Current()
	l.Rows = v
	if ok {
		if i := v.Find(current.PackageID); i >= 0 {
			l.Cursor = i
			return
		}
	}
	l.clamp()
}

func (l *AppList) clamp() {
	if l.Cursor >= l.Rows.Len() {
		l.Cursor = max(0, l.Rows.Len()-1)
	}
	if l.Cursor < 0 {
		l.Cursor = 0
	}
}

// MoveUp moves cursor up
func (l *AppList) MoveUp() {
	if l.Cursor > 0 {
		l.Cursor--
	}
}

// MoveDown moves cursor down
func (l *AppList) MoveDown() {
	if l.Cursor < l.Rows.Len()-1 {
		l.Cursor++
	}
}

func (l *AppList) pageSize() int {
	pageSize := l.Height - 3
	if pageSize < 1 {
		pageSize = 10
	}
	return pageSize
}

// PageUp moves cursor up by a page
func (l *AppList) PageUp() {
	l.Cursor -= l.pageSize()
	l.clamp()
}

// PageDown moves cursor down by a page
func (l *AppList) PageDown() {
	l.Cursor += l.pageSize()
	l.clamp()
}

// GoToFirst moves cursor to the first item
func (l *AppList) GoToFirst() {
	l.Cursor = 0
}

// GoToLast moves cursor to the last item
func (l *AppList) GoToLast() {
	l.Cursor = max(0, l.Rows.Len()-1)
}

// Current returns the row under the cursor
func (l *AppList) Current() (models.ViewEntry, bool) {
	return l.Rows.At(l.Cursor)
}

// View renders the app list
func (l *AppList) View() string {
	var b strings.Builder
	v := l.Rows

	title := l.Title
	if v.Len() > 0 {
		title = fmt.Sprintf("%s (%d hidden, %d shown)", l.Title, v.HiddenCount(), v.Len())
	}
	if v.Filter != "" {
		title += fmt.Sprintf(" [%d of %d]", v.Len(), v.Total)
	}
	b.WriteString(ui.PanelTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(ui.DividerStyle.Render(strings.Repeat("─", max(0, l.Width-2))))
	b.WriteString("\n")

	if v.Len() == 0 {
		if v.Filter != "" {
			b.WriteString(ui.ItemStyle.Render(fmt.Sprintf("No apps match %q", v.Filter)))
		} else {
			b.WriteString(ui.ItemStyle.Render("No apps found"))
		}
		return l.wrapInPanel(b.String())
	}

	// Calculate visible range
	visibleHeight := l.pageSize()
	startIdx := 0
	if l.Cursor >= visibleHeight {
		startIdx = l.Cursor - visibleHeight + 1
	}
	endIdx := min(startIdx+visibleHeight, v.Len())

	if startIdx > 0 {
		b.WriteString(ui.MutedStyle.Render("  ↑ more"))
		b.WriteString("\n")
	}

	for i := startIdx; i < endIdx; i++ {
		b.WriteString(l.renderItem(v.Entries[i], i == l.Cursor))
		if i < endIdx-1 {
			b.WriteString("\n")
		}
	}

	if endIdx < v.Len() {
		b.WriteString("\n")
		b.WriteString(ui.MutedStyle.Render("  ↓ more"))
	}

	return l.wrapInPanel(b.String())
}

// renderItem renders a single row
func (l *AppList) renderItem(e models.ViewEntry, isCursor bool) string {
	checkbox := ui.RenderState(e.State)

	label := truncate(e.DisplayLabel(), max(10, l.Width/2-6))
	pkg := truncate(e.PackageID, max(10, l.Width/2-6))

	content := fmt.Sprintf("%s %s %s", checkbox, ui.LabelStyle.Render(label), ui.PackageStyle.Render(pkg))
	if e.State.Pending() {
		content += " " + ui.PendingStyle.Render("…")
	}

	if isCursor && l.Focused {
		return ui.SelectedItemStyle.Width(max(0, l.Width-4)).Render(content)
	}
	return ui.ItemStyle.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// wrapInPanel wraps content in a panel border
func (l *AppList) wrapInPanel(content string) string {
	return ui.PanelStyle.Width(l.Width).Height(l.Height).Render(content)
}
