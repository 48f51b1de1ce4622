package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type pageCall struct {
	query  string
	limit  int
	offset int
}

// fakeFetcher serves a synthetic catalog of `total` projects per query.
type fakeFetcher struct {
	mu          sync.Mutex
	total       int
	totals      map[string]int
	failOffsets map[int]bool
	calls       []pageCall
	detailCalls []string

	// gate, when set, blocks FetchPage until closed; entered is signalled
	// once the fetch has started.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeFetcher(total int) *fakeFetcher {
	return &fakeFetcher{total: total, totals: map[string]int{}, failOffsets: map[int]bool{}}
}

func slugFor(query string, pos int) string {
	if query == "" {
		return fmt.Sprintf("item-%d", pos)
	}
	return fmt.Sprintf("%s-%d", query, pos)
}

func (f *fakeFetcher) FetchPage(_ context.Context, query string, limit, offset int) ([]catalog.ProjectSummary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageCall{query, limit, offset})
	gate, entered := f.gate, f.entered
	fail := f.failOffsets[offset]
	total := f.total
	if t, ok := f.totals[query]; ok {
		total = t
	}
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if fail {
		return nil, &catalog.FetchError{Op: "fetch page", Kind: catalog.KindNetwork, Err: errors.New("boom")}
	}
	var out []catalog.ProjectSummary
	for pos := offset; pos < total && len(out) < limit; pos++ {
		out = append(out, catalog.ProjectSummary{Slug: slugFor(query, pos), Name: fmt.Sprintf("P%d", pos), Revision: pos%3 + 1})
	}
	return out, nil
}

func (f *fakeFetcher) FetchDetail(_ context.Context, slug string, revision int) (catalog.ProjectDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls = append(f.detailCalls, fmt.Sprintf("%s@%d", slug, revision))
	if slug == "broken" {
		return catalog.ProjectDetail{}, &catalog.FetchError{Op: "fetch detail", Kind: catalog.KindStatus, Err: errors.New("404")}
	}
	return catalog.ProjectDetail{Slug: slug, Revision: revision, Name: "Detail " + slug}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) lastCall() pageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// recorder is a Renderer that keeps everything it was asked to draw.
type recorder struct {
	mu      sync.Mutex
	lists   []ListView
	details []catalog.ProjectDetail
	errors  []string
	focuses []Focus
}

func (r *recorder) RenderList(v ListView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, v)
}

func (r *recorder) RenderDetail(d catalog.ProjectDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details = append(r.details, d)
}

func (r *recorder) RenderError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recorder) FocusRequest(f Focus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focuses = append(r.focuses, f)
}

func (r *recorder) lastFocus() Focus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focuses[len(r.focuses)-1]
}

func (r *recorder) lastList() ListView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists[len(r.lists)-1]
}

func newTestController(f *fakeFetcher, opts Options) (*Controller, *recorder, *clock.FakeClock) {
	clk := clock.Fake(epoch)
	if opts.Clock == nil {
		opts.Clock = clk
	}
	r := &recorder{}
	return New(f, r, opts), r, clk
}

func slugs(items []catalog.ProjectSummary) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Slug
	}
	return out
}
