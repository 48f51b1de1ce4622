package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/VoxDroid/bhub/internal/browse"
	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/nameutil"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0ea5a4")).Background(lipgloss.Color("#0b1226"))
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0ea5a4"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#94a3b8"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("#fde047")).Foreground(lipgloss.Color("#0b1226"))
	matchStyle    = lipgloss.NewStyle().Underline(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
)

// View renders either the list or the detail screen.
func (m *TuiModel) View() string {
	if m.detail != nil {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m *TuiModel) viewList() string {
	var b strings.Builder
	title := fmt.Sprintf(" BadgeHub | page %d ", m.view.Page)
	if m.ctrl != nil && m.ctrl.Mode() == browse.ModeInfinite {
		title = fmt.Sprintf(" BadgeHub | %d loaded ", m.view.BaseOffset+len(m.view.Items))
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(m.input.View() + "\n\n")

	switch m.view.State {
	case browse.StateLoading:
		b.WriteString(m.spinner.View() + " Loading...\n")
	case browse.StateEmptyResult:
		b.WriteString(dimStyle.Render(browse.MsgNoProjects) + "\n")
	}

	start, end := visibleRange(len(m.view.Items), m.focusedIndex(), m.listRows())
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i) + "\n")
	}
	if end < len(m.view.Items) || !m.view.EndReached && len(m.view.Items) > 0 {
		b.WriteString(dimStyle.Render("  ...") + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("↑/↓ move  pgup/pgdn page  enter open  y copy slug  esc quit"))
	return b.String()
}

func (m *TuiModel) renderRow(i int) string {
	it := m.view.Items[i]
	name := nameutil.Clean(it.Name)
	if name == "" {
		name = it.Slug
	}
	suffix := dimStyle.Render(fmt.Sprintf("  %s rev %d", it.Slug, it.Revision))
	if m.focus.Target == browse.FocusItem && m.focus.Index == i {
		return selectedStyle.Render("> "+name) + suffix
	}
	return "  " + highlightMatches(name, m.view.Query) + suffix
}

func (m *TuiModel) focusedIndex() int {
	if m.focus.Target == browse.FocusItem {
		return m.focus.Index
	}
	return 0
}

func (m *TuiModel) listRows() int {
	if m.height <= 0 {
		return 20
	}
	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	return rows
}

// visibleRange picks the slice of n rows to draw so that focus stays
// on screen.
func visibleRange(n, focus, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	start := focus - rows + 1
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > n {
		end = n
		start = end - rows
	}
	return start, end
}

// highlightMatches underlines the characters of name that fuzzy-match
// query.
func highlightMatches(name, query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return name
	}
	matches := fuzzy.Find(strings.ToLower(q), []string{strings.ToLower(name)})
	if len(matches) == 0 {
		return name
	}
	// MatchedIndexes are byte offsets into the lowered name; lowering keeps
	// ASCII offsets, fall back to plain text otherwise
	if len(strings.ToLower(name)) != len(name) {
		return name
	}
	hit := make(map[int]bool, len(matches[0].MatchedIndexes))
	for _, idx := range matches[0].MatchedIndexes {
		hit[idx] = true
	}
	var b strings.Builder
	for i, r := range name {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (m *TuiModel) viewDetail() string {
	var b strings.Builder
	b.WriteString(m.vp.View() + "\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	b.WriteString(dimStyle.Render("i install  y copy slug  c copy install path  b back"))
	return b.String()
}

// formatDetail renders a project detail for the viewport.
func formatDetail(d catalog.ProjectDetail, width int) string {
	contentW := width - 2
	if contentW < 20 {
		contentW = 20
	}
	labelW := len("Published:")
	valueW := contentW - labelW - 1

	var b strings.Builder
	name := nameutil.Clean(d.Name)
	if name == "" {
		name = d.Slug
	}
	title := fmt.Sprintf("%s (rev %d)", name, d.Revision)
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(headingStyle.Render(strings.Repeat("─", min(contentW, utf8.RuneCountInString(title)+4))) + "\n\n")

	for _, row := range [][2]string{
		{"Slug:", nameutil.Clean(d.Slug)},
		{"Author:", nameutil.Clean(d.Author)},
		{"Version:", nameutil.Clean(d.Version)},
		{"Published:", nameutil.Clean(d.PublishedAt)},
	} {
		if row[1] == "" {
			continue
		}
		b.WriteString(renderTableInline(labelStyle.Render(padRight(row[0], labelW)), row[1], 0, valueW))
	}
	if desc := nameutil.Clean(d.Description); desc != "" {
		b.WriteString("\n" + headingStyle.Render("Description:") + "\n")
		for _, ln := range wrapText(desc, contentW) {
			b.WriteString(ln + "\n")
		}
	}
	b.WriteString("\n" + headingStyle.Render(fmt.Sprintf("Files (%d):", len(d.Files))) + "\n")
	for _, f := range d.Files {
		b.WriteString("  " + nameutil.Clean(f.FullPath) + "\n")
	}
	return b.String()
}

// simple word-wrap to produce lines no longer than width (approximate by rune count)
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	out := []string{}
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			if utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) > width {
				out = append(out, cur)
				cur = w
			} else {
				cur = cur + " " + w
			}
		}
		out = append(out, cur)
	}
	return out
}

// renderTableInline renders a label on the left and the value on the same line
// when possible. Values are wrapped to valueW and continuation lines are
// aligned under the value column.
func renderTableInline(label, value string, labelW, valueW int) string {
	lines := wrapText(value, valueW)
	pad := lipgloss.Width(label)
	if labelW > pad {
		pad = labelW
	}
	var b strings.Builder
	for i, ln := range lines {
		if i == 0 {
			b.WriteString(padRight(label, pad) + " " + ln + "\n")
			continue
		}
		b.WriteString(strings.Repeat(" ", pad) + " " + ln + "\n")
	}
	return b.String()
}

func padRight(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
