package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/bhub/internal/browse"
	"github.com/VoxDroid/bhub/internal/nameutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog projects",
	Long:  "List one page of the catalog, optionally filtered. Example:\n  bhub list --search snake --page 2",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		page, _ := cmd.Flags().GetInt("page")
		if limit <= 0 {
			limit = s.PageSize
		}
		if cmd.Flags().Changed("page") {
			if cmd.Flags().Changed("offset") {
				return fmt.Errorf("use either --offset or --page, not both")
			}
			if page < 1 {
				return fmt.Errorf("invalid --page %d: pages start at 1", page)
			}
			offset = (page - 1) * limit
		}

		client := newClient(s, newLogger(cmd), true)
		items, err := client.FetchPage(cmd.Context(), search, limit, offset)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, browse.MsgNoProjects)
			return nil
		}
		fmt.Fprintf(out, "Page %d (offset %d)\n", offset/limit+1, offset)
		for _, it := range items {
			fmt.Fprintf(out, "- %-24s rev %-3d %s\n", nameutil.Clean(it.Slug), it.Revision, nameutil.Clean(it.Name))
		}
		if len(items) == limit {
			fmt.Fprintf(out, "More results: bhub list --offset %d\n", offset+limit)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("search", "", "Filter by search text")
	listCmd.Flags().Int("limit", 0, "Projects per page (default page_size)")
	listCmd.Flags().Int("offset", 0, "Catalog offset to start at")
	listCmd.Flags().Int("page", 1, "1-based page number")
	rootCmd.AddCommand(listCmd)
}
