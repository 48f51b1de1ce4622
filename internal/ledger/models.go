// Package ledger records which projects are installed under an install root.
package ledger

import "time"

// InstallRecord describes one installed project.
type InstallRecord struct {
	ID          int64
	Slug        string
	Revision    int
	Name        string
	Version     string
	InstallDir  string
	RunID       string
	InstalledAt time.Time
	Files       []InstalledFile
}

// InstalledFile is a file written by an install, in download order.
type InstalledFile struct {
	Position int
	FullPath string
	SHA256   string
	Size     int64
}

// TotalSize sums the recorded file sizes.
func (r InstallRecord) TotalSize() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Size
	}
	return n
}
