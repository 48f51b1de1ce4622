// Package browse implements the catalog list controller: it owns the window
// of loaded projects, page/offset bookkeeping, debounced search and
// focus-preserving redraws. Rendering is delegated to a Renderer.
package browse

import (
	"context"

	"github.com/VoxDroid/bhub/internal/catalog"
)

// Mode selects the list strategy for a Controller.
type Mode string

const (
	// ModePaged shows one fixed-size page at a time.
	ModePaged Mode = "paged"
	// ModeInfinite appends batches as focus nears the tail and prunes the head.
	ModeInfinite Mode = "infinite"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModePaged, ModeInfinite:
		return Mode(s), true
	}
	return "", false
}

// State is the lifecycle state of the list window.
type State string

const (
	StateEmpty       State = "empty"
	StateLoading     State = "loading"
	StatePopulated   State = "populated"
	StateEmptyResult State = "empty-result"
	StateError       State = "error"
)

// FocusTarget says what holds keyboard focus.
type FocusTarget int

const (
	FocusNone FocusTarget = iota
	FocusInput
	FocusItem
)

// Focus identifies the focused element. Items are identified by slug; Index
// is their position in the current window.
type Focus struct {
	Target FocusTarget
	Index  int
	Slug   string
}

// Key is a navigation key understood by HandleKey.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyPageUp
	KeyPageDown
)

// ListView is a read-only snapshot handed to the renderer.
type ListView struct {
	Items      []catalog.ProjectSummary
	State      State
	Query      string
	BaseOffset int
	EndReached bool
	Page       int
}

// Renderer is implemented by the presentation layer. The controller never
// calls it while holding its own lock, so implementations may call back.
type Renderer interface {
	RenderList(view ListView)
	RenderDetail(detail catalog.ProjectDetail)
	RenderError(message string)
	FocusRequest(focus Focus)
}

// Fetcher is the subset of catalog.Client the controller needs.
type Fetcher interface {
	FetchPage(ctx context.Context, query string, limit, offset int) ([]catalog.ProjectSummary, error)
	FetchDetail(ctx context.Context, slug string, revision int) (catalog.ProjectDetail, error)
}

// User-visible status texts.
const (
	MsgListFailed   = "Failed to load projects."
	MsgDetailFailed = "Failed to load project details."
	MsgNoProjects   = "No applications found."
)
