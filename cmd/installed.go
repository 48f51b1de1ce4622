package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/VoxDroid/bhub/internal/config"
	"github.com/VoxDroid/bhub/internal/ledger"
	"github.com/VoxDroid/bhub/internal/nameutil"
)

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "List installed projects",
	Long:  "List projects recorded in the install ledger. Example:\n  bhub installed --filter snk",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		repo, err := ledger.Open(config.LedgerPath(s.InstallRoot))
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()

		recs, err := repo.ListInstalls()
		if err != nil {
			return err
		}
		filter, _ := cmd.Flags().GetString("filter")
		recs = ledger.FilterInstalls(recs, filter)

		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "No installed projects.")
			return nil
		}
		for _, r := range recs {
			fmt.Fprintf(out, "- %-24s rev %-3d %-10s %8s  %s  %s\n",
				r.Slug, r.Revision, nameutil.Clean(r.Version), humanize.Bytes(uint64(r.TotalSize())),
				humanize.Time(r.InstalledAt), nameutil.Clean(r.Name))
		}
		return nil
	},
}

func init() {
	installedCmd.Flags().String("filter", "", "Fuzzy filter by slug or name")
	rootCmd.AddCommand(installedCmd)
}
