package install

import (
	"errors"
	"fmt"
)

// Kind classifies an install failure.
type Kind string

const (
	DirectoryCreateFailed Kind = "directory-create-failed"
	FileWriteFailed       Kind = "file-write-failed"
	DownloadFailed        Kind = "download-failed"
	ChecksumMismatch      Kind = "checksum-mismatch"
	InvalidPath           Kind = "invalid-path"
)

// ErrNotInstalled is returned by Uninstall when the project has no install
// directory.
var ErrNotInstalled = errors.New("project is not installed")

// Error is returned by Install. Index is the 1-based position of the file
// that failed, or 0 when the failure happened before any file was started.
type Error struct {
	Kind  Kind
	Index int
	Path  string
	Err   error
}

func (e *Error) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("install file %d (%s): %s: %v", e.Index, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("install %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the one-line message shown to the user.
func (e *Error) Status() string {
	switch e.Kind {
	case DirectoryCreateFailed:
		return fmt.Sprintf("Error: Could not create directory '%s'", e.Path)
	case DownloadFailed:
		return fmt.Sprintf("Error: Failed to download %s", e.Path)
	case ChecksumMismatch:
		return fmt.Sprintf("Error: Checksum mismatch for %s", e.Path)
	case InvalidPath:
		return fmt.Sprintf("Error: Refusing to install outside the project directory: %s", e.Path)
	default:
		return fmt.Sprintf("Error: Could not write %s", e.Path)
	}
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Kind == k
}
