// Package install downloads a project revision's file set into
// {root}/{slug} and records completed installs in the ledger.
package install

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/clock"
	"github.com/VoxDroid/bhub/internal/ledger"
	"github.com/VoxDroid/bhub/internal/nameutil"
	"github.com/VoxDroid/bhub/internal/transport"
)

// Recorder persists completed installs. *ledger.Repository implements it.
type Recorder interface {
	RecordInstall(rec *ledger.InstallRecord) error
	DeleteInstall(slug string) error
}

// Options controls install behavior.
type Options struct {
	// Root is the install root; each project goes to Root/{slug}.
	Root      string
	Transport transport.Transport
	// SkipVerify disables sha256 checks of downloaded files.
	SkipVerify bool
	// Recorder, if set, is told about every completed install.
	Recorder Recorder
	Logger   *slog.Logger
	Clock    clock.Clock
	// NewRunID overrides run ID generation (tests).
	NewRunID func() string
}

// Pipeline installs and removes projects under one root.
type Pipeline struct {
	root     string
	tr       transport.Transport
	verify   bool
	recorder Recorder
	log      *slog.Logger
	clock    clock.Clock
	newRunID func() string
}

// Result describes a completed install.
type Result struct {
	Slug     string
	Revision int
	Dir      string
	RunID    string
	Files    []ledger.InstalledFile
	Bytes    int64
}

// New returns a Pipeline for opts.
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	return &Pipeline{
		root:     opts.Root,
		tr:       opts.Transport,
		verify:   !opts.SkipVerify,
		recorder: opts.Recorder,
		log:      log.With("component", "install"),
		clock:    clk,
		newRunID: newRunID,
	}
}

// Root returns the install root.
func (p *Pipeline) Root() string { return p.root }

// Dir returns the install directory for slug.
func (p *Pipeline) Dir(slug string) string { return filepath.Join(p.root, slug) }

// Install downloads every file of d in order. The first failure aborts the
// run: the failing file is removed, earlier files stay, later files are never
// requested. onEvent may be nil.
func (p *Pipeline) Install(ctx context.Context, d catalog.ProjectDetail, onEvent func(Event)) (*Result, error) {
	emit := func(e Event) {
		if onEvent != nil {
			onEvent(e)
		}
	}
	total := len(d.Files)
	fail := func(e *Error) (*Result, error) {
		p.log.Warn("install failed", "slug", d.Slug, "revision", d.Revision, "kind", string(e.Kind), "index", e.Index, "err", e.Err)
		emit(Event{Kind: Failed, Index: e.Index, Total: total, Path: e.Path, Err: e})
		return nil, e
	}

	if err := nameutil.ValidateSlug(d.Slug); err != nil {
		return fail(&Error{Kind: InvalidPath, Path: d.Slug, Err: err})
	}
	dir := p.Dir(d.Slug)
	for _, each := range []string{p.root, dir} {
		// an existing directory is fine
		if err := os.MkdirAll(each, 0o755); err != nil {
			return fail(&Error{Kind: DirectoryCreateFailed, Path: each, Err: err})
		}
	}

	res := &Result{Slug: d.Slug, Revision: d.Revision, Dir: dir, RunID: p.newRunID()}
	p.log.Info("install started", "slug", d.Slug, "revision", d.Revision, "files", total, "run_id", res.RunID)

	for i, f := range d.Files {
		index := i + 1
		target, err := resolveTarget(dir, f.FullPath)
		if err != nil {
			return fail(&Error{Kind: InvalidPath, Index: index, Path: f.FullPath, Err: err})
		}
		emit(Event{Kind: FileStarted, Index: index, Total: total, Path: f.FullPath})

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fail(&Error{Kind: DirectoryCreateFailed, Index: index, Path: filepath.Dir(target), Err: err})
		}
		n, sum, ierr := p.fetchFile(ctx, f, target)
		if ierr != nil {
			ierr.Index = index
			ierr.Path = f.FullPath
			// a failed file must not linger, including one left by an earlier revision
			if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
				p.log.Warn("remove failed file", "path", target, "err", err)
			}
			return fail(ierr)
		}
		res.Files = append(res.Files, ledger.InstalledFile{Position: index, FullPath: f.FullPath, SHA256: sum, Size: n})
		res.Bytes += n
		p.log.Debug("file installed", "slug", d.Slug, "path", f.FullPath, "bytes", n)
		emit(Event{Kind: FileDone, Index: index, Total: total, Path: f.FullPath, Bytes: n})
	}

	if p.recorder != nil {
		rec := &ledger.InstallRecord{
			Slug:        d.Slug,
			Revision:    d.Revision,
			Name:        d.Name,
			Version:     d.Version,
			InstallDir:  dir,
			RunID:       res.RunID,
			InstalledAt: p.clock.Now(),
			Files:       res.Files,
		}
		// the files are on disk; a ledger failure does not undo the install
		if err := p.recorder.RecordInstall(rec); err != nil {
			p.log.Warn("record install", "slug", d.Slug, "err", err)
		}
	}
	emit(Event{Kind: Succeeded, Total: total, Path: dir, Bytes: res.Bytes})
	return res, nil
}

// fetchFile streams f into a temporary file next to target, checks its
// digest, and renames it into place.
func (p *Pipeline) fetchFile(ctx context.Context, f catalog.ProjectFile, target string) (int64, string, *Error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(target), ".bhub_part_")
	if err != nil {
		return 0, "", &Error{Kind: FileWriteFailed, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmp := tmpFile.Name()
	// ensure temp file gets removed if something goes wrong
	defer func() { _ = os.Remove(tmp) }()

	h := sha256.New()
	w := &writeTracker{w: io.MultiWriter(tmpFile, h)}
	n, err := p.tr.Download(ctx, f.URL, w)
	if cerr := tmpFile.Close(); cerr != nil && err == nil && w.err == nil {
		return n, "", &Error{Kind: FileWriteFailed, Err: fmt.Errorf("close temp file: %w", cerr)}
	}
	if w.err != nil {
		return n, "", &Error{Kind: FileWriteFailed, Err: w.err}
	}
	if err != nil {
		return n, "", &Error{Kind: DownloadFailed, Err: err}
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if p.verify && f.SHA256 != "" && !strings.EqualFold(sum, strings.TrimSpace(f.SHA256)) {
		return n, sum, &Error{Kind: ChecksumMismatch, Err: fmt.Errorf("expected sha256 %s, got %s", f.SHA256, sum)}
	}
	if err := doRenameOrFallback(tmp, target); err != nil {
		return n, sum, &Error{Kind: FileWriteFailed, Err: err}
	}
	return n, sum, nil
}

// writeTracker remembers the first local write error so it can be told apart
// from a network failure.
type writeTracker struct {
	w   io.Writer
	err error
}

func (t *writeTracker) Write(b []byte) (int, error) {
	n, err := t.w.Write(b)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

// doRenameOrFallback attempts an atomic rename of tmp -> dst and falls back to a copy
// if the rename fails (useful on Windows where rename may fail if the target is in use).
func doRenameOrFallback(tmp, dst string) error {
	renameErr := os.Rename(tmp, dst)
	if renameErr == nil {
		return nil
	}
	f, ferr := os.Open(tmp)
	if ferr != nil {
		return fmt.Errorf("rename: %v; fallback open tmp failed: %w", renameErr, ferr)
	}
	defer func() { _ = f.Close() }()
	dstF, derr := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if derr != nil {
		return fmt.Errorf("rename: %v; fallback open dst failed: %w", renameErr, derr)
	}
	_, copyErr := io.Copy(dstF, f)
	closeErr := dstF.Close()
	// Ensure tmp is cleaned up even if the OS has transient locks (Windows).
	for i := 0; i < 5; i++ {
		if rerr := os.Remove(tmp); rerr == nil || errors.Is(rerr, os.ErrNotExist) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if copyErr != nil {
		return fmt.Errorf("rename: %v; fallback copy failed: %w", renameErr, copyErr)
	}
	return closeErr
}

// Uninstall removes {root}/{slug} and its ledger record.
func (p *Pipeline) Uninstall(slug string) error {
	if err := nameutil.ValidateSlug(slug); err != nil {
		return err
	}
	dir := p.Dir(slug)
	_, statErr := os.Stat(dir)
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dir, statErr)
	}
	if statErr == nil {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}
	if p.recorder != nil {
		if err := p.recorder.DeleteInstall(slug); err != nil {
			return fmt.Errorf("delete ledger record: %w", err)
		}
	}
	if statErr != nil {
		return fmt.Errorf("%s: %w", slug, ErrNotInstalled)
	}
	p.log.Info("uninstalled", "slug", slug, "dir", dir)
	return nil
}
