package ui

import (
	"context"

	"github.com/VoxDroid/bhub/internal/browse"
	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/install"
)

// Controller is the subset of *browse.Controller the TUI drives. Every
// call may invoke the Renderer synchronously, so the TUI only calls it from
// tea.Cmd goroutines, never from Update.
type Controller interface {
	Open(ctx context.Context) error
	Close()
	QueryChanged(text string)
	CommitSearch(text string) error
	HandleKey(k browse.Key)
	FocusItem(i int)
	FocusInput()
	OpenDetail(slug string) (catalog.ProjectDetail, bool)
	Mode() browse.Mode
}

// Installer is the subset of *install.Pipeline the TUI uses.
type Installer interface {
	Install(ctx context.Context, d catalog.ProjectDetail, onEvent func(install.Event)) (*install.Result, error)
	Dir(slug string) string
}
