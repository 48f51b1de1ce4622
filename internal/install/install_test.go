package install

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/clock"
	"github.com/VoxDroid/bhub/internal/config"
	"github.com/VoxDroid/bhub/internal/ledger"
	"github.com/VoxDroid/bhub/internal/transport"
)

type fakeTransport struct {
	mu       sync.Mutex
	bodies   map[string]string
	partial  map[string]string // written, then the transfer fails
	requests []string
}

func (f *fakeTransport) Get(ctx context.Context, url string) ([]byte, error) {
	var b strings.Builder
	if _, err := f.Download(ctx, url, &b); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func (f *fakeTransport) Download(_ context.Context, url string, w io.Writer) (int64, error) {
	f.mu.Lock()
	f.requests = append(f.requests, url)
	body, ok := f.bodies[url]
	part, isPartial := f.partial[url]
	f.mu.Unlock()
	if isPartial {
		n, _ := io.WriteString(w, part)
		return int64(n), errors.New("connection reset")
	}
	if !ok {
		return 0, &transport.StatusError{URL: url, Code: 404}
	}
	n, err := io.WriteString(w, body)
	return int64(n), err
}

type fakeRecorder struct {
	records []*ledger.InstallRecord
	deleted []string
}

func (r *fakeRecorder) RecordInstall(rec *ledger.InstallRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRecorder) DeleteInstall(slug string) error {
	r.deleted = append(r.deleted, slug)
	return nil
}

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func newTestPipeline(t *testing.T, tr *fakeTransport, rec Recorder) (*Pipeline, string) {
	root := filepath.Join(t.TempDir(), "apps")
	p := New(Options{
		Root:      root,
		Transport: tr,
		Recorder:  rec,
		Clock:     clock.Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		NewRunID:  func() string { return "run-1" },
	})
	return p, root
}

func detail(files ...catalog.ProjectFile) catalog.ProjectDetail {
	return catalog.ProjectDetail{Slug: "snake", Revision: 3, Name: "Snake", Version: "1.2", Files: files}
}

func TestInstallWritesFilesAndRecords(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{
		"http://x/main.py": "print('hi')",
		"http://x/util.py": "def f(): pass",
	}}
	rec := &fakeRecorder{}
	p, root := newTestPipeline(t, tr, rec)

	var events []Event
	res, err := p.Install(context.Background(), detail(
		catalog.ProjectFile{FullPath: "main.py", URL: "http://x/main.py", SHA256: sum("print('hi')")},
		catalog.ProjectFile{FullPath: "lib/util.py", URL: "http://x/util.py"},
	), func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(root, "snake", "lib", "util.py"))
	if err != nil || string(b) != "def f(): pass" {
		t.Fatalf("nested file not written: %q %v", b, err)
	}
	if res.Bytes != int64(len("print('hi')")+len("def f(): pass")) || len(res.Files) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Files[1].SHA256 != sum("def f(): pass") {
		t.Fatalf("digest not computed for unsigned file")
	}

	wantKinds := []EventKind{FileStarted, FileDone, FileStarted, FileDone, Succeeded}
	if len(events) != len(wantKinds) {
		t.Fatalf("expected %d events, got %d", len(wantKinds), len(events))
	}
	for i, k := range wantKinds {
		if events[i].Kind != k {
			t.Fatalf("event %d: expected %s got %s", i, k, events[i].Kind)
		}
	}
	if got := events[2].Status(); got != "Downloading (2/2): lib/util.py" {
		t.Fatalf("unexpected status %q", got)
	}
	if got := events[4].Status(); got != "Installation complete!" {
		t.Fatalf("unexpected status %q", got)
	}

	if len(rec.records) != 1 {
		t.Fatalf("expected one ledger record")
	}
	r := rec.records[0]
	if r.RunID != "run-1" || r.Revision != 3 || r.Version != "1.2" || len(r.Files) != 2 {
		t.Fatalf("unexpected record %+v", r)
	}
	if !r.InstalledAt.Equal(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("install time not taken from clock: %v", r.InstalledAt)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "snake"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".bhub_part_") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestInstallTwiceReusesDirectories(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{"http://x/a": "A"}}
	p, root := newTestPipeline(t, tr, nil)
	d := detail(catalog.ProjectFile{FullPath: "a.py", URL: "http://x/a"})
	for i := 0; i < 2; i++ {
		if _, err := p.Install(context.Background(), d, nil); err != nil {
			t.Fatalf("Install pass %d: %v", i+1, err)
		}
	}
	if b, _ := os.ReadFile(filepath.Join(root, "snake", "a.py")); string(b) != "A" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestInstallAbortsOnFailedDownload(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{
		"http://x/1": "one",
		"http://x/3": "three",
	}}
	rec := &fakeRecorder{}
	p, root := newTestPipeline(t, tr, rec)

	var last Event
	_, err := p.Install(context.Background(), detail(
		catalog.ProjectFile{FullPath: "a.py", URL: "http://x/1"},
		catalog.ProjectFile{FullPath: "b.py", URL: "http://x/2"},
		catalog.ProjectFile{FullPath: "c.py", URL: "http://x/3"},
	), func(e Event) { last = e })

	var ie *Error
	if !errors.As(err, &ie) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ie.Kind != DownloadFailed || ie.Index != 2 || ie.Path != "b.py" {
		t.Fatalf("unexpected error %+v", ie)
	}
	var se *transport.StatusError
	if !errors.As(err, &se) || se.Code != 404 {
		t.Fatalf("status error not wrapped: %v", err)
	}
	dir := filepath.Join(root, "snake")
	if _, err := os.Stat(filepath.Join(dir, "a.py")); err != nil {
		t.Fatalf("file 1 should be kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.py")); !os.IsNotExist(err) {
		t.Fatalf("file 2 should be removed")
	}
	for _, u := range tr.requests {
		if u == "http://x/3" {
			t.Fatalf("file 3 must never be requested")
		}
	}
	if last.Kind != Failed || last.Status() != "Error: Failed to download b.py" {
		t.Fatalf("unexpected final event %+v (%s)", last, last.Status())
	}
	if len(rec.records) != 0 {
		t.Fatalf("failed install must not be recorded")
	}
}

func TestInstallRemovesPartialFile(t *testing.T) {
	tr := &fakeTransport{partial: map[string]string{"http://x/big": "half of it"}}
	p, root := newTestPipeline(t, tr, nil)
	// a file left by an earlier revision is removed too
	dir := filepath.Join(root, "snake")
	_ = os.MkdirAll(dir, 0o755)
	_ = os.WriteFile(filepath.Join(dir, "big.bin"), []byte("old"), 0o644)

	_, err := p.Install(context.Background(), detail(catalog.ProjectFile{FullPath: "big.bin", URL: "http://x/big"}), nil)
	if !IsKind(err, DownloadFailed) {
		t.Fatalf("expected download failure, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty project dir, found %d entries", len(entries))
	}
}

func TestInstallChecksumMismatch(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{"http://x/a": "tampered"}}
	p, root := newTestPipeline(t, tr, nil)
	d := detail(catalog.ProjectFile{FullPath: "a.py", URL: "http://x/a", SHA256: sum("original")})

	_, err := p.Install(context.Background(), d, nil)
	if !IsKind(err, ChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "snake", "a.py")); !os.IsNotExist(err) {
		t.Fatalf("mismatched file should be removed")
	}

	lax := New(Options{Root: root, Transport: tr, SkipVerify: true})
	if _, err := lax.Install(context.Background(), d, nil); err != nil {
		t.Fatalf("SkipVerify install: %v", err)
	}
}

func TestInstallRejectsEscapingPath(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{"http://x/a": "A"}}
	p, root := newTestPipeline(t, tr, nil)

	_, err := p.Install(context.Background(), detail(catalog.ProjectFile{FullPath: "../../evil.py", URL: "http://x/a"}), nil)
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != InvalidPath || ie.Index != 1 {
		t.Fatalf("expected invalid path at index 1, got %v", err)
	}
	if len(tr.requests) != 0 {
		t.Fatalf("nothing should be downloaded")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "evil.py")); !os.IsNotExist(err) {
		t.Fatalf("file escaped the install root")
	}
}

func TestInstallDirectoryCreateFailure(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{"http://x/a": "A"}}
	blocker := filepath.Join(t.TempDir(), "apps")
	if err := os.WriteFile(blocker, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	p := New(Options{Root: blocker, Transport: tr})

	var events []Event
	_, err := p.Install(context.Background(), detail(catalog.ProjectFile{FullPath: "a.py", URL: "http://x/a"}), func(e Event) { events = append(events, e) })
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != DirectoryCreateFailed || ie.Index != 0 {
		t.Fatalf("expected directory failure before any file, got %v", err)
	}
	if len(tr.requests) != 0 {
		t.Fatalf("no download may start after a directory failure")
	}
	if len(events) != 1 || !strings.HasPrefix(events[0].Status(), "Error: Could not create directory '") {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestInstallRecordsInLedger(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{"http://x/a": "A"}}
	root := filepath.Join(t.TempDir(), "apps")
	repo, err := ledger.Open(filepath.Join(root, ".bhub.db"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	defer func() { _ = repo.Close() }()
	p := New(Options{Root: root, Transport: tr, Recorder: repo})

	res, err := p.Install(context.Background(), detail(catalog.ProjectFile{FullPath: "a.py", URL: "http://x/a"}), nil)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	got, err := repo.GetInstall("snake")
	if err != nil || got == nil {
		t.Fatalf("GetInstall: %v %v", got, err)
	}
	if got.RunID != res.RunID || len(got.RunID) != 36 {
		t.Fatalf("unexpected run id %q", got.RunID)
	}

	if err := p.Uninstall("snake"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if got, _ := repo.GetInstall("snake"); got != nil {
		t.Fatalf("ledger record survived uninstall")
	}
}

func TestUninstall(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{"http://x/a": "A"}}
	rec := &fakeRecorder{}
	p, root := newTestPipeline(t, tr, rec)
	if _, err := p.Install(context.Background(), detail(catalog.ProjectFile{FullPath: "a.py", URL: "http://x/a"}), nil); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := p.Uninstall("snake"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "snake")); !os.IsNotExist(err) {
		t.Fatalf("install dir not removed")
	}
	if len(rec.deleted) != 1 || rec.deleted[0] != "snake" {
		t.Fatalf("ledger not updated: %v", rec.deleted)
	}
	if err := p.Uninstall("snake"); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
	if err := p.Uninstall("../etc"); err == nil {
		t.Fatalf("expected invalid slug error")
	}
}

func TestUninstallRefusesLedgerName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "apps")
	repo, err := ledger.Open(config.LedgerPath(root))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer func() { _ = repo.Close() }()
	tr := &fakeTransport{bodies: map[string]string{"http://x/a": "A"}}
	p := New(Options{Root: root, Transport: tr, Recorder: repo})

	if err := p.Uninstall(config.LedgerFile); err == nil {
		t.Fatalf("expected error uninstalling %q", config.LedgerFile)
	}
	if _, err := p.PlanUninstall(config.LedgerFile); err == nil {
		t.Fatalf("expected error planning uninstall of %q", config.LedgerFile)
	}
	d := catalog.ProjectDetail{Slug: config.LedgerFile, Revision: 1, Files: []catalog.ProjectFile{{FullPath: "a.py", URL: "http://x/a"}}}
	if _, err := p.Install(context.Background(), d, nil); !IsKind(err, InvalidPath) {
		t.Fatalf("expected InvalidPath installing %q, got %v", config.LedgerFile, err)
	}
	if len(tr.requests) != 0 {
		t.Fatalf("nothing should be downloaded, got %v", tr.requests)
	}
	if fi, err := os.Stat(config.LedgerPath(root)); err != nil || fi.IsDir() {
		t.Fatalf("ledger damaged: %v", err)
	}
	if _, err := repo.ListInstalls(); err != nil {
		t.Fatalf("ledger unusable after refused uninstall: %v", err)
	}
}

func TestPlan(t *testing.T) {
	p, root := newTestPipeline(t, &fakeTransport{}, &fakeRecorder{})
	actions, err := p.Plan(detail(
		catalog.ProjectFile{FullPath: "a.py", URL: "http://x/a", SHA256: "abc"},
		catalog.ProjectFile{FullPath: "b.py", URL: "http://x/b"},
	))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := []string{
		"Ensure directory exists: " + filepath.Join(root, "snake"),
		"Download http://x/a -> " + filepath.Join(root, "snake", "a.py"),
		"Verify sha256 abc",
		"Download http://x/b -> " + filepath.Join(root, "snake", "b.py"),
		"Record install in " + filepath.Join(root, ".bhub.db"),
	}
	if strings.Join(actions, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected plan:\n%s", strings.Join(actions, "\n"))
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("Plan must not touch the filesystem")
	}
	if _, err := p.Plan(detail(catalog.ProjectFile{FullPath: "/etc/passwd"})); !IsKind(err, InvalidPath) {
		t.Fatalf("expected invalid path, got %v", err)
	}
}
