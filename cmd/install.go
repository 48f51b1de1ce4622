package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/VoxDroid/bhub/internal/install"
	"github.com/VoxDroid/bhub/internal/nameutil"
)

var installCmd = &cobra.Command{
	Use:   "install <slug>",
	Short: "Download a project into the install root",
	Long:  "Download every file of a project revision to {install-root}/{slug}. Use --dry-run to preview actions.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		rev, _ := cmd.Flags().GetInt("revision")
		noVerify, _ := cmd.Flags().GetBool("no-verify")
		dry, _ := cmd.Flags().GetBool("dry-run")
		log := newLogger(cmd)

		d, err := fetchDetail(cmd, newClient(s, log, true), args[0], rev)
		if err != nil {
			return err
		}
		p, repo, err := openPipeline(s, log, noVerify)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()

		out := cmd.OutOrStdout()
		if dry {
			actions, err := p.Plan(d)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Planned actions for %s rev %d:\n", d.Slug, d.Revision)
			for _, a := range actions {
				fmt.Fprintf(out, "- %s\n", nameutil.Clean(a))
			}
			return nil
		}

		res, err := p.Install(cmd.Context(), d, progressPrinter(out))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Installed %s rev %d to %s (%d files, %s)\n", res.Slug, res.Revision, res.Dir, len(res.Files), humanize.Bytes(uint64(res.Bytes)))
		return nil
	},
}

// progressPrinter renders install events. On a terminal the current line is
// redrawn in place; otherwise each status change gets its own line.
func progressPrinter(w io.Writer) func(install.Event) {
	tty := isTerminal(w)
	return func(e install.Event) {
		line := nameutil.Clean(e.Status())
		if e.Kind == install.FileDone {
			line = fmt.Sprintf("%s (%s)", line, humanize.Bytes(uint64(e.Bytes)))
		}
		if !tty {
			fmt.Fprintln(w, line)
			return
		}
		// clear the line before drawing over it
		fmt.Fprintf(w, "\r\x1b[2K%s", line)
		if e.Kind == install.Succeeded || e.Kind == install.Failed {
			fmt.Fprintln(w)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	installCmd.Flags().Int("revision", 0, "Project revision (default: current)")
	installCmd.Flags().Bool("no-verify", false, "Skip sha256 verification of downloaded files")
	installCmd.Flags().BoolP("dry-run", "n", false, "Show actions but do not perform them")
	rootCmd.AddCommand(installCmd)
}
