package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <slug>",
	Short: "Remove an installed project",
	Long:  "Remove {install-root}/{slug} and its ledger record. Use --dry-run to preview actions.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		p, repo, err := openPipeline(s, newLogger(cmd), false)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()

		out := cmd.OutOrStdout()
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			actions, err := p.PlanUninstall(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Planned actions for uninstall:")
			for _, a := range actions {
				fmt.Fprintf(out, "- %s\n", a)
			}
			return nil
		}
		if err := p.Uninstall(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Uninstalled %s\n", args[0])
		return nil
	},
}

func init() {
	uninstallCmd.Flags().BoolP("dry-run", "n", false, "Show actions but do not perform them")
	rootCmd.AddCommand(uninstallCmd)
}
