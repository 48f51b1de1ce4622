// Package catalog talks to the BadgeHub catalog API: it builds query URLs,
// decodes project summaries and details, and fetches project icons.
package catalog

// ProjectSummary is one entry of the project list.
type ProjectSummary struct {
	Slug        string
	Name        string
	Description string
	Revision    int
	// IconURL is the 64x64 icon location, empty when the project has none.
	IconURL string
	// Icon holds the fetched icon bytes; nil when absent or the fetch failed.
	Icon []byte
}

// ProjectDetail is the full record of one project revision.
type ProjectDetail struct {
	Slug        string
	Revision    int
	Name        string
	Description string
	Author      string
	Version     string
	PublishedAt string
	Files       []ProjectFile
}

// ProjectFile is a single file belonging to a project revision.
type ProjectFile struct {
	// FullPath is relative to the project's install directory.
	FullPath string
	SHA256   string
	URL      string
}
