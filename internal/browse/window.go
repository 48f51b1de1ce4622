package browse

import "github.com/VoxDroid/bhub/internal/catalog"

// window is the contiguous, offset-anchored slice of the catalog held in
// memory. items[i] is the project at server position baseOffset+i.
type window struct {
	items      []catalog.ProjectSummary
	index      map[string]int
	baseOffset int
	endReached bool
	query      string
}

func newWindow() window {
	return window{index: map[string]int{}}
}

// reset clears the window for a fresh search starting at offset 0.
func (w *window) reset(query string) {
	w.items = nil
	w.index = map[string]int{}
	w.baseOffset = 0
	w.endReached = false
	w.query = query
}

// replace swaps in a whole page fetched at offset.
func (w *window) replace(offset int, page []catalog.ProjectSummary, pageSize int) {
	w.items = append([]catalog.ProjectSummary(nil), page...)
	w.baseOffset = offset
	w.endReached = len(page) < pageSize
	w.reindex()
}

// appendBatch extends the tail with a batch fetched at baseOffset+len(items).
func (w *window) appendBatch(batch []catalog.ProjectSummary, pageSize int) {
	start := len(w.items)
	w.items = append(w.items, batch...)
	w.endReached = len(batch) < pageSize
	for i := start; i < len(w.items); i++ {
		if s := w.items[i].Slug; s != "" {
			if _, dup := w.index[s]; !dup {
				w.index[s] = i
			}
		}
	}
}

// prependBatch puts a batch fetched at offset in front of the head. The
// batch must end exactly at baseOffset.
func (w *window) prependBatch(offset int, batch []catalog.ProjectSummary) {
	items := make([]catalog.ProjectSummary, 0, len(batch)+len(w.items))
	items = append(items, batch...)
	w.items = append(items, w.items...)
	w.baseOffset = offset
	w.reindex()
}

// trimTail drops up to n items from the end. The window no longer reaches
// the end of the list afterwards.
func (w *window) trimTail(n int) int {
	if n > len(w.items) {
		n = len(w.items)
	}
	if n <= 0 {
		return 0
	}
	w.items = append([]catalog.ProjectSummary(nil), w.items[:len(w.items)-n]...)
	w.endReached = false
	w.reindex()
	return n
}

// prune evicts up to n items from the head and advances baseOffset by the
// number evicted.
func (w *window) prune(n int) int {
	if n > len(w.items) {
		n = len(w.items)
	}
	if n <= 0 {
		return 0
	}
	w.items = append([]catalog.ProjectSummary(nil), w.items[n:]...)
	w.baseOffset += n
	w.reindex()
	return n
}

func (w *window) reindex() {
	w.index = make(map[string]int, len(w.items))
	for i, it := range w.items {
		if it.Slug == "" {
			continue
		}
		// first occurrence wins if the server repeats a slug
		if _, dup := w.index[it.Slug]; !dup {
			w.index[it.Slug] = i
		}
	}
}

func (w *window) indexOf(slug string) (int, bool) {
	if slug == "" {
		return 0, false
	}
	i, ok := w.index[slug]
	return i, ok
}

func (w *window) snapshot() []catalog.ProjectSummary {
	return append([]catalog.ProjectSummary(nil), w.items...)
}
