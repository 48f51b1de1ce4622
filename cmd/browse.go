package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/bhub/cmd/tui/ui"
	"github.com/VoxDroid/bhub/internal/browse"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and install apps interactively",
	Long:  "Start the interactive catalog browser. Paged mode shows one page at a time; infinite mode appends as you scroll.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		modeName := s.Mode
		if v, _ := cmd.Flags().GetString("mode"); v != "" {
			modeName = v
		}
		mode, ok := browse.ParseMode(modeName)
		if !ok {
			return fmt.Errorf("invalid --mode %q: want paged or infinite", modeName)
		}

		// stderr belongs to the full-screen UI; logs go to a file
		log, closeLog, err := newFileLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		p, repo, err := openPipeline(s, log, false)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()

		renderer := ui.NewRenderer()
		ctrl := browse.New(newClient(s, log, false), renderer, browse.Options{
			Mode:        mode,
			PageSize:    s.PageSize,
			SearchDelay: s.SearchDelay,
			Logger:      log,
		})
		defer ctrl.Close()

		prog := ui.NewProgram(cmd.Context(), ctrl, p, renderer)
		_, err = prog.Run()
		return err
	},
}

func init() {
	browseCmd.Flags().String("mode", "", "List strategy: paged or infinite (default from settings)")
	rootCmd.AddCommand(browseCmd)
}
