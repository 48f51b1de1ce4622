package ui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/VoxDroid/bhub/internal/browse"
	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/install"
	"github.com/VoxDroid/bhub/internal/nameutil"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// TuiModel is the Bubble Tea model used by `bhub browse`. It only mirrors
// what the controller renders; all list state lives in the controller.
type TuiModel struct {
	ctrl      Controller
	installer Installer
	renderer  *Renderer
	ctx       context.Context

	input   textinput.Model
	spinner spinner.Model
	vp      viewport.Model

	width  int
	height int

	view       browse.ListView
	focus      browse.Focus
	detail     *catalog.ProjectDetail
	status     string
	installing bool
	// lastQuery is the input value last reported to the controller.
	lastQuery string
}

// NewModel constructs the TUI model. renderer must be the one ctrl was
// built with.
func NewModel(ctx context.Context, ctrl Controller, installer Installer, renderer *Renderer) *TuiModel {
	in := textinput.New()
	in.Placeholder = "Search apps"
	in.Prompt = "/ "
	in.CharLimit = 128
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &TuiModel{
		ctrl:      ctrl,
		installer: installer,
		renderer:  renderer,
		ctx:       ctx,
		input:     in,
		spinner:   sp,
		vp:        viewport.New(0, 0),
		focus:     browse.Focus{Target: browse.FocusInput},
	}
}

// NewProgram constructs the tea.Program and attaches the renderer to it.
func NewProgram(ctx context.Context, ctrl Controller, installer Installer, renderer *Renderer) *tea.Program {
	m := NewModel(ctx, ctrl, installer, renderer)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	renderer.Attach(p.Send)
	return p
}

// Init loads the first page.
func (m *TuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.do(func() {
		_ = m.ctrl.Open(m.ctx)
	}))
}

// do runs f off the update loop so controller callbacks can reach the
// program.
func (m *TuiModel) do(f func()) tea.Cmd {
	return func() tea.Msg {
		f()
		return nil
	}
}

func (m *TuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		m.ensureViewportSize(msg.Width-2, msg.Height-4)
		if m.detail != nil {
			m.vp.SetContent(formatDetail(*m.detail, m.vp.Width))
		}
		return m, nil
	case listMsg:
		m.view = browse.ListView(msg)
		if m.view.State != browse.StateError {
			m.status = ""
		}
		return m, nil
	case focusMsg:
		m.focus = browse.Focus(msg)
		if m.focus.Target == browse.FocusItem {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()
	case detailMsg:
		d := catalog.ProjectDetail(msg)
		m.detail = &d
		m.vp.SetContent(formatDetail(d, m.vp.Width))
		m.vp.GotoTop()
		return m, nil
	case errorMsg:
		m.status = string(msg)
		return m, nil
	case installEventMsg:
		m.status = nameutil.Clean(install.Event(msg).Status())
		return m, nil
	case installDoneMsg:
		m.installing = false
		if msg.err == nil && msg.res != nil {
			m.status = fmt.Sprintf("Installation complete! %s", msg.res.Dir)
		}
		return m, nil
	case clipboardMsg:
		if msg.err != nil {
			m.status = "Clipboard unavailable: " + msg.err.Error()
		} else {
			m.status = "Copied " + msg.text
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *TuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := msg.String()
	if s == "ctrl+c" {
		m.ctrl.Close()
		return m, tea.Quit
	}
	if m.detail != nil {
		return m.handleDetailKey(msg)
	}

	switch s {
	case "up":
		return m, m.do(func() { m.ctrl.HandleKey(browse.KeyUp) })
	case "down":
		return m, m.do(func() { m.ctrl.HandleKey(browse.KeyDown) })
	case "pgup":
		return m, m.do(func() { m.ctrl.HandleKey(browse.KeyPageUp) })
	case "pgdown":
		return m, m.do(func() { m.ctrl.HandleKey(browse.KeyPageDown) })
	case "esc":
		if m.focus.Target == browse.FocusItem {
			return m, m.do(m.ctrl.FocusInput)
		}
		m.ctrl.Close()
		return m, tea.Quit
	}

	if m.focus.Target != browse.FocusItem {
		if s == "enter" {
			q := m.input.Value()
			m.lastQuery = q
			return m, m.do(func() { _ = m.ctrl.CommitSearch(q) })
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if q := m.input.Value(); q != m.lastQuery {
			m.lastQuery = q
			return m, tea.Batch(cmd, m.do(func() { m.ctrl.QueryChanged(q) }))
		}
		return m, cmd
	}

	slug := m.focus.Slug
	switch s {
	case "enter":
		return m, m.do(func() { m.ctrl.OpenDetail(slug) })
	case "/":
		return m, m.do(m.ctrl.FocusInput)
	case "y":
		return m, copyCmd(slug)
	case "q":
		m.ctrl.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m *TuiModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := *m.detail
	switch msg.String() {
	case "esc", "b":
		m.detail = nil
		return m, nil
	case "y":
		return m, copyCmd(d.Slug)
	case "c":
		if m.installer == nil {
			return m, nil
		}
		return m, copyCmd(m.installer.Dir(d.Slug))
	case "i":
		if m.installing || m.installer == nil {
			return m, nil
		}
		m.installing = true
		m.status = fmt.Sprintf("Installing %s...", d.Slug)
		return m, m.installCmd(d)
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *TuiModel) installCmd(d catalog.ProjectDetail) tea.Cmd {
	return func() tea.Msg {
		res, err := m.installer.Install(m.ctx, d, func(e install.Event) {
			m.renderer.post(installEventMsg(e))
		})
		return installDoneMsg{res: res, err: err}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: copyToClipboard(text)}
	}
}
