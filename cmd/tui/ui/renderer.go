package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/VoxDroid/bhub/internal/browse"
	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/install"
)

// Messages delivered to the Bubble Tea program.
type (
	listMsg         browse.ListView
	focusMsg        browse.Focus
	detailMsg       catalog.ProjectDetail
	errorMsg        string
	installEventMsg install.Event
	installDoneMsg  struct {
		res *install.Result
		err error
	}
	clipboardMsg struct {
		text string
		err  error
	}
)

// Renderer implements browse.Renderer by forwarding every callback to the
// running program as a message. Callbacks before Attach are dropped.
type Renderer struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewRenderer returns an unattached Renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Attach routes messages to send, usually (*tea.Program).Send.
func (r *Renderer) Attach(send func(tea.Msg)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = send
}

func (r *Renderer) post(msg tea.Msg) {
	r.mu.Lock()
	send := r.send
	r.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (r *Renderer) RenderList(v browse.ListView) { r.post(listMsg(v)) }
func (r *Renderer) RenderDetail(d catalog.ProjectDetail) { r.post(detailMsg(d)) }
func (r *Renderer) RenderError(message string) { r.post(errorMsg(message)) }
func (r *Renderer) FocusRequest(f browse.Focus) { r.post(focusMsg(f)) }

var _ browse.Renderer = (*Renderer)(nil)
