package install

import "fmt"

// EventKind identifies a progress event.
type EventKind int

const (
	FileStarted EventKind = iota
	FileDone
	Succeeded
	Failed
)

func (k EventKind) String() string {
	switch k {
	case FileStarted:
		return "file-started"
	case FileDone:
		return "file-done"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is delivered synchronously to the Install callback, once per status
// change.
type Event struct {
	Kind  EventKind
	Index int // 1-based; 0 for Succeeded and pre-download failures
	Total int
	Path  string
	Bytes int64
	Err   error // set for Failed
}

// Status renders the event as a status line.
func (e Event) Status() string {
	switch e.Kind {
	case FileStarted:
		return fmt.Sprintf("Downloading (%d/%d): %s", e.Index, e.Total, e.Path)
	case FileDone:
		return fmt.Sprintf("Downloaded (%d/%d): %s", e.Index, e.Total, e.Path)
	case Succeeded:
		return "Installation complete!"
	case Failed:
		if ie, ok := e.Err.(*Error); ok {
			return ie.Status()
		}
		if e.Err != nil {
			return "Error: " + e.Err.Error()
		}
		return "Error"
	}
	return ""
}
