package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/nameutil"
)

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a project's details and files",
	Long:  "Show a project's metadata and file list. Without --revision the catalog's current revision is used.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		rev, _ := cmd.Flags().GetInt("revision")
		client := newClient(s, newLogger(cmd), true)
		d, err := fetchDetail(cmd, client, args[0], rev)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s, rev %d)\n", nameutil.Clean(d.Name), nameutil.Clean(d.Slug), d.Revision)
		if d.Author != "" {
			fmt.Fprintf(out, "Author:    %s\n", nameutil.Clean(d.Author))
		}
		if d.Version != "" {
			fmt.Fprintf(out, "Version:   %s\n", nameutil.Clean(d.Version))
		}
		if nameutil.Clean(d.PublishedAt) != "" {
			fmt.Fprintf(out, "Published: %s\n", nameutil.Clean(d.PublishedAt))
		}
		if d.Description != "" {
			fmt.Fprintf(out, "\n%s\n", nameutil.Clean(d.Description))
		}
		fmt.Fprintf(out, "\nFiles (%d):\n", len(d.Files))
		for _, f := range d.Files {
			fmt.Fprintf(out, "- %s\n", nameutil.Clean(f.FullPath))
		}
		return nil
	},
}

// fetchDetail loads slug at rev, resolving the current revision when rev
// is 0.
func fetchDetail(cmd *cobra.Command, client *catalog.Client, slug string, rev int) (catalog.ProjectDetail, error) {
	if rev <= 0 {
		summary, err := client.ResolveRevision(cmd.Context(), slug)
		if err != nil {
			return catalog.ProjectDetail{}, err
		}
		rev = summary.Revision
	}
	return client.FetchDetail(cmd.Context(), slug, rev)
}

func init() {
	showCmd.Flags().Int("revision", 0, "Project revision (default: current)")
	rootCmd.AddCommand(showCmd)
}
