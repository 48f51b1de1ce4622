package install

import (
	"fmt"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/config"
	"github.com/VoxDroid/bhub/internal/nameutil"
)

// Plan returns the human-readable actions Install would perform for d,
// without touching the filesystem or the network.
func (p *Pipeline) Plan(d catalog.ProjectDetail) ([]string, error) {
	if err := nameutil.ValidateSlug(d.Slug); err != nil {
		return nil, &Error{Kind: InvalidPath, Path: d.Slug, Err: err}
	}
	dir := p.Dir(d.Slug)
	actions := []string{fmt.Sprintf("Ensure directory exists: %s", dir)}
	for i, f := range d.Files {
		target, err := resolveTarget(dir, f.FullPath)
		if err != nil {
			return nil, &Error{Kind: InvalidPath, Index: i + 1, Path: f.FullPath, Err: err}
		}
		actions = append(actions, fmt.Sprintf("Download %s -> %s", f.URL, target))
		if p.verify && f.SHA256 != "" {
			actions = append(actions, fmt.Sprintf("Verify sha256 %s", f.SHA256))
		}
	}
	if p.recorder != nil {
		actions = append(actions, fmt.Sprintf("Record install in %s", config.LedgerPath(p.root)))
	}
	return actions, nil
}

// PlanUninstall returns the actions Uninstall would perform for slug.
func (p *Pipeline) PlanUninstall(slug string) ([]string, error) {
	if err := nameutil.ValidateSlug(slug); err != nil {
		return nil, err
	}
	actions := []string{fmt.Sprintf("Remove directory: %s", p.Dir(slug))}
	if p.recorder != nil {
		actions = append(actions, fmt.Sprintf("Remove ledger record for %s", slug))
	}
	return actions, nil
}
