package browse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/clock"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultPageSize    = 20
	DefaultSearchDelay = time.Second
)

// PruneOptions bounds memory in ModeInfinite. Once the focused index passes
// HighWater while at least MinLoaded items are held, Batch items are evicted
// from the head. Batch 0 disables pruning (unbounded append).
type PruneOptions struct {
	HighWater int
	MinLoaded int
	Batch     int
}

// DefaultPrune is used when Options.Prune is nil.
var DefaultPrune = PruneOptions{HighWater: 20, MinLoaded: 30, Batch: 10}

// Options configures a Controller.
type Options struct {
	Mode        Mode
	PageSize    int
	SearchDelay time.Duration
	Clock       clock.Clock
	Logger      *slog.Logger
	Prune       *PruneOptions
}

type focusPolicy int

const (
	keepFocus focusPolicy = iota
	focusFirst
	focusLast
)

// Controller owns one list window. All methods are safe for concurrent
// use; at most one list fetch is in flight and overlapping triggers are
// dropped.
type Controller struct {
	fetcher  Fetcher
	renderer Renderer
	mode     Mode
	pageSize int
	prune    PruneOptions
	log      *slog.Logger
	debounce *debouncer

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	win      window
	state    State
	focus    Focus
	fetching bool
	closed   bool
	// deferred holds a search committed while a fetch was in flight.
	deferred *string
}

// New constructs a Controller. Call Open to load the first page.
func New(f Fetcher, r Renderer, opts Options) *Controller {
	mode := opts.Mode
	if mode == "" {
		mode = ModePaged
	}
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	delay := opts.SearchDelay
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	prune := DefaultPrune
	if opts.Prune != nil {
		prune = *opts.Prune
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetcher:  f,
		renderer: r,
		mode:     mode,
		pageSize: size,
		prune:    prune,
		log:      log.With("component", "browse", "mode", string(mode)),
		debounce: newDebouncer(clk, delay),
		ctx:      ctx,
		cancel:   cancel,
		win:      newWindow(),
		state:    StateEmpty,
	}
}

// Open binds the controller to ctx and loads the first page of the
// unfiltered catalog. The returned error is also reported to the renderer.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.closed = false
	c.mu.Unlock()
	return c.restart("")
}

// Close cancels any pending search and releases the window. Late timer
// callbacks are ignored.
func (c *Controller) Close() {
	c.debounce.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancel()
	c.win = newWindow()
	c.deferred = nil
}

// QueryChanged records a keystroke in the search field. The search is
// committed once input has been quiet for the search delay.
func (c *Controller) QueryChanged(text string) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.debounce.trigger(func() {
		if err := c.restart(text); err != nil {
			c.log.Debug("debounced search failed", "query", text, "err", err)
		}
	})
}

// CommitSearch cancels the pending debounce and searches for text now.
func (c *Controller) CommitSearch(text string) error {
	c.debounce.cancel()
	return c.restart(text)
}

// SearchPending reports whether a debounced search is waiting to fire.
func (c *Controller) SearchPending() bool { return c.debounce.pending() }

// restart resets the window to query and fetches from offset 0.
func (c *Controller) restart(query string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.fetching {
		// search is last-writer-wins; run it when the current fetch lands
		c.deferred = &query
		c.mu.Unlock()
		return nil
	}
	c.fetching = true
	c.win.reset(query)
	c.state = StateLoading
	c.focus = Focus{Target: FocusInput}
	view := c.viewLocked()
	ctx := c.ctx
	c.mu.Unlock()

	c.log.Debug("search committed", "query", query)
	c.renderer.RenderList(view)

	items, err := c.fetcher.FetchPage(ctx, query, c.pageSize, 0)

	c.mu.Lock()
	if c.closed {
		c.fetching = false
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.state = StateError
	} else {
		c.win.replace(0, items, c.pageSize)
		c.state = c.populatedState()
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("list fetch failed", "query", query, "err", err)
		c.redraw(keepFocus)
		c.renderer.RenderError(MsgListFailed)
		c.finishFetch()
		return err
	}
	c.redraw(keepFocus)
	c.finishFetch()
	return nil
}

// NextPage replaces the window with the following page. In ModeInfinite it
// appends instead. Returns false when nothing was fetched.
func (c *Controller) NextPage() bool {
	if c.mode == ModeInfinite {
		return c.LoadMore()
	}
	c.mu.Lock()
	if c.win.endReached || !c.beginFetchLocked() {
		c.mu.Unlock()
		return false
	}
	offset := c.win.baseOffset + c.pageSize
	c.mu.Unlock()
	return c.loadPage(offset, focusFirst)
}

// PreviousPage replaces the window with the preceding page and focuses its
// last item. Returns false at offset 0 or while a fetch is in flight.
func (c *Controller) PreviousPage() bool {
	if c.mode == ModeInfinite {
		return false
	}
	c.mu.Lock()
	if c.win.baseOffset == 0 || !c.beginFetchLocked() {
		c.mu.Unlock()
		return false
	}
	offset := c.win.baseOffset - c.pageSize
	if offset < 0 {
		offset = 0
	}
	c.mu.Unlock()
	return c.loadPage(offset, focusLast)
}

func (c *Controller) loadPage(offset int, policy focusPolicy) bool {
	c.mu.Lock()
	ctx, query := c.ctx, c.win.query
	c.mu.Unlock()

	items, err := c.fetcher.FetchPage(ctx, query, c.pageSize, offset)

	c.mu.Lock()
	if c.closed {
		c.fetching = false
		c.mu.Unlock()
		return false
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("page fetch failed", "offset", offset, "err", err)
		c.renderer.RenderError(MsgListFailed)
		c.finishFetch()
		return false
	}
	c.win.replace(offset, items, c.pageSize)
	c.state = c.populatedState()
	c.mu.Unlock()

	c.redraw(policy)
	c.finishFetch()
	return true
}

// LoadMore appends the next batch to the window (ModeInfinite). Returns
// false at the end of the list or while a fetch is in flight.
func (c *Controller) LoadMore() bool {
	c.mu.Lock()
	if c.win.endReached || !c.beginFetchLocked() {
		c.mu.Unlock()
		return false
	}
	ctx, query := c.ctx, c.win.query
	offset := c.win.baseOffset + len(c.win.items)
	c.mu.Unlock()

	items, err := c.fetcher.FetchPage(ctx, query, c.pageSize, offset)

	c.mu.Lock()
	if c.closed {
		c.fetching = false
		c.mu.Unlock()
		return false
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("append fetch failed", "offset", offset, "err", err)
		c.renderer.RenderError(MsgListFailed)
		c.finishFetch()
		return false
	}
	c.win.appendBatch(items, c.pageSize)
	c.state = c.populatedState()
	c.mu.Unlock()

	c.redraw(keepFocus)
	c.finishFetch()
	return true
}

// LoadPrevious refetches the batch just before the window's head after a
// prune has evicted it (ModeInfinite). With pruning enabled the tail is
// trimmed so the window stays bounded. Returns false at offset 0 or while
// a fetch is in flight.
func (c *Controller) LoadPrevious() bool {
	c.mu.Lock()
	if c.win.baseOffset == 0 || !c.beginFetchLocked() {
		c.mu.Unlock()
		return false
	}
	ctx, query := c.ctx, c.win.query
	base := c.win.baseOffset
	offset := base - c.pageSize
	if offset < 0 {
		offset = 0
	}
	c.mu.Unlock()

	items, err := c.fetcher.FetchPage(ctx, query, base-offset, offset)

	c.mu.Lock()
	if c.closed {
		c.fetching = false
		c.mu.Unlock()
		return false
	}
	if err != nil || len(items) != base-offset {
		c.mu.Unlock()
		if err == nil {
			// the catalog shifted under us; the head can no longer be stitched
			c.log.Warn("head fetch returned short batch", "offset", offset, "want", base-offset, "got", len(items))
		} else {
			c.log.Warn("head fetch failed", "offset", offset, "err", err)
		}
		c.renderer.RenderError(MsgListFailed)
		c.finishFetch()
		return false
	}
	c.win.prependBatch(offset, items)
	if c.prune.Batch > 0 {
		if excess := len(c.win.items) - c.prune.MinLoaded - c.pageSize; excess > 0 {
			c.win.trimTail(excess)
		}
	}
	c.state = c.populatedState()
	c.mu.Unlock()

	c.redraw(keepFocus)
	c.finishFetch()
	return true
}

// Prune evicts the configured batch from the head of the window. Returns
// the number of items evicted; 0 when pruning is disabled or a fetch is in
// flight.
func (c *Controller) Prune() int {
	c.mu.Lock()
	if c.prune.Batch <= 0 || c.fetching || c.closed {
		c.mu.Unlock()
		return 0
	}
	n := c.win.prune(c.prune.Batch)
	c.mu.Unlock()
	if n > 0 {
		c.log.Debug("pruned window head", "evicted", n)
		c.redraw(keepFocus)
	}
	return n
}

type keyAction int

const (
	keyNone keyAction = iota
	keyMoved
	keyToInput
	keyPreviousPage
	keyLoadMore
	keyLoadPrevious
)

// HandleKey applies the keyboard navigation contract. The neighbour of the
// focused item is located by slug and focused under the same lock, so a
// concurrent append or prune cannot shift the step.
func (c *Controller) HandleKey(k Key) {
	switch k {
	case KeyPageDown:
		c.NextPage()
		return
	case KeyPageUp:
		if c.mode == ModeInfinite {
			c.LoadPrevious()
			return
		}
		c.PreviousPage()
		return
	}

	c.mu.Lock()
	act, focus := c.keyActionLocked(k)
	c.mu.Unlock()

	switch act {
	case keyMoved:
		c.focusMoved(focus)
	case keyToInput:
		c.FocusInput()
	case keyPreviousPage:
		c.PreviousPage()
	case keyLoadMore:
		if c.LoadMore() {
			c.stepFocus(1)
		}
	case keyLoadPrevious:
		if c.LoadPrevious() {
			c.stepFocus(-1)
		}
	}
}

func (c *Controller) keyActionLocked(k Key) (keyAction, Focus) {
	if c.focus.Target != FocusItem {
		switch k {
		case KeyDown:
			if len(c.win.items) > 0 {
				c.focus = c.itemFocusLocked(0)
				return keyMoved, c.focus
			}
		case KeyUp:
			return keyPreviousPage, Focus{}
		}
		return keyNone, Focus{}
	}

	delta := 1
	if k == KeyUp {
		delta = -1
	}
	if f, ok := c.stepFocusLocked(delta); ok {
		return keyMoved, f
	}
	switch {
	case c.mode == ModePaged:
		return keyToInput, Focus{}
	case k == KeyDown:
		return keyLoadMore, Focus{}
	case c.win.baseOffset > 0:
		return keyLoadPrevious, Focus{}
	}
	return keyToInput, Focus{}
}

// stepFocus moves item focus by delta from wherever the focused slug sits
// now.
func (c *Controller) stepFocus(delta int) {
	c.mu.Lock()
	f, ok := c.stepFocusLocked(delta)
	c.mu.Unlock()
	if ok {
		c.focusMoved(f)
	}
}

func (c *Controller) stepFocusLocked(delta int) (Focus, bool) {
	if c.focus.Target != FocusItem {
		return Focus{}, false
	}
	i := c.focus.Index
	if j, ok := c.win.indexOf(c.focus.Slug); ok {
		i = j
	}
	i += delta
	if i < 0 || i >= len(c.win.items) {
		return Focus{}, false
	}
	c.focus = c.itemFocusLocked(i)
	return c.focus, true
}

// FocusItem moves focus to the item at index i. In ModeInfinite this may
// trigger an append (near the tail) and a prune (past the high-water mark).
func (c *Controller) FocusItem(i int) {
	c.mu.Lock()
	if i < 0 || i >= len(c.win.items) {
		c.mu.Unlock()
		return
	}
	c.focus = c.itemFocusLocked(i)
	focus := c.focus
	c.mu.Unlock()
	c.focusMoved(focus)
}

func (c *Controller) focusMoved(f Focus) {
	c.renderer.FocusRequest(f)
	if c.mode == ModeInfinite {
		c.afterFocusMove()
	}
}

// FocusInput moves focus to the search field.
func (c *Controller) FocusInput() {
	c.mu.Lock()
	c.focus = Focus{Target: FocusInput}
	c.mu.Unlock()
	c.renderer.FocusRequest(Focus{Target: FocusInput})
}

func (c *Controller) afterFocusMove() {
	c.mu.Lock()
	f := c.focus
	n := len(c.win.items)
	c.mu.Unlock()
	if f.Target != FocusItem {
		return
	}
	if f.Index >= n-2 {
		c.LoadMore()
	}

	c.mu.Lock()
	f = c.focus
	n = len(c.win.items)
	c.mu.Unlock()
	if f.Target == FocusItem && f.Index > c.prune.HighWater && n >= c.prune.MinLoaded {
		c.Prune()
	}
}

// OpenDetail fetches the detail for a project in the window and renders
// it. The revision comes from the window's identity map.
func (c *Controller) OpenDetail(slug string) (catalog.ProjectDetail, bool) {
	c.mu.Lock()
	i, ok := c.win.indexOf(slug)
	var summary catalog.ProjectSummary
	if ok {
		summary = c.win.items[i]
	}
	ctx := c.ctx
	c.mu.Unlock()

	if !ok {
		c.renderer.RenderError(MsgDetailFailed)
		return catalog.ProjectDetail{}, false
	}
	d, err := c.fetcher.FetchDetail(ctx, summary.Slug, summary.Revision)
	if err != nil {
		c.log.Warn("detail fetch failed", "slug", slug, "revision", summary.Revision, "err", err)
		c.renderer.RenderError(MsgDetailFailed)
		return catalog.ProjectDetail{}, false
	}
	c.renderer.RenderDetail(d)
	return d, true
}

// Project looks up a loaded project by slug.
func (c *Controller) Project(slug string) (catalog.ProjectSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.win.indexOf(slug)
	if !ok {
		return catalog.ProjectSummary{}, false
	}
	return c.win.items[i], true
}

// View returns a snapshot of the window.
func (c *Controller) View() ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Focus returns the current focus.
func (c *Controller) Focus() Focus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// State returns the window state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PageNumber is the 1-based page the window starts on.
func (c *Controller) PageNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.baseOffset/c.pageSize + 1
}

// Fetching reports whether a list fetch is in flight.
func (c *Controller) Fetching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching
}

// Mode returns the strategy the controller was built with.
func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) beginFetchLocked() bool {
	if c.fetching || c.closed {
		return false
	}
	c.fetching = true
	return true
}

// finishFetch clears the in-flight guard and runs a search deferred while
// the fetch was running.
func (c *Controller) finishFetch() {
	c.mu.Lock()
	c.fetching = false
	q := c.deferred
	c.deferred = nil
	c.mu.Unlock()
	if q != nil {
		if err := c.restart(*q); err != nil {
			c.log.Debug("deferred search failed", "query", *q, "err", err)
		}
	}
}

func (c *Controller) populatedState() State {
	if len(c.win.items) == 0 {
		return StateEmptyResult
	}
	return StatePopulated
}

func (c *Controller) viewLocked() ListView {
	return ListView{
		Items:      c.win.snapshot(),
		State:      c.state,
		Query:      c.win.query,
		BaseOffset: c.win.baseOffset,
		EndReached: c.win.endReached,
		Page:       c.win.baseOffset/c.pageSize + 1,
	}
}

// redraw renders the window and restores focus. keepFocus re-locates the
// previously focused slug and falls back to the input when it is gone.
func (c *Controller) redraw(policy focusPolicy) {
	c.mu.Lock()
	view := c.viewLocked()
	prev := c.focus
	var next Focus
	switch policy {
	case focusFirst:
		next = c.itemFocusLocked(0)
	case focusLast:
		next = c.itemFocusLocked(len(c.win.items) - 1)
	default:
		next = Focus{Target: FocusInput}
		if prev.Target == FocusItem {
			if i, ok := c.win.indexOf(prev.Slug); ok {
				next = Focus{Target: FocusItem, Index: i, Slug: prev.Slug}
			}
		}
	}
	c.focus = next
	c.mu.Unlock()

	c.renderer.RenderList(view)
	c.renderer.FocusRequest(next)
}

func (c *Controller) itemFocusLocked(i int) Focus {
	if i < 0 || i >= len(c.win.items) {
		return Focus{Target: FocusInput}
	}
	return Focus{Target: FocusItem, Index: i, Slug: c.win.items[i].Slug}
}
