package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/config"
	"github.com/VoxDroid/bhub/internal/install"
	"github.com/VoxDroid/bhub/internal/ledger"
	"github.com/VoxDroid/bhub/internal/transport"
	"github.com/VoxDroid/bhub/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "bhub",
	Short:         "bhub browses and installs apps from the BadgeHub catalog",
	Long:          "bhub lists, searches and installs BadgeHub projects. Run 'bhub browse' for the interactive browser.",
	SilenceUsage:  true,
	SilenceErrors: false,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "bhub: run 'bhub --help' to see available commands")
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Settings file (default ~/.bhub/config.yaml)")
	pf.String("base-url", "", "Catalog API root (overrides base_url)")
	pf.String("install-root", "", "Directory projects are installed under (overrides install_root)")
	pf.BoolP("verbose", "v", false, "Log requests and install steps to stderr")
}

// loadSettings reads the settings file and applies persistent flag overrides.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	s, err := config.Load(path)
	if err != nil {
		return config.Settings{}, err
	}
	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		s.BaseURL = strings.TrimRight(v, "/")
	}
	if v, _ := cmd.Flags().GetString("install-root"); v != "" {
		s.InstallRoot = v
	}
	return s, nil
}

// newLogger writes structured logs to stderr: warnings by default, debug
// with --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// newFileLogger is newLogger for full-screen commands: with --verbose it
// appends to {data dir}/bhub.log, otherwise logs are discarded.
func newFileLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	if v, _ := cmd.Flags().GetBool("verbose"); !v {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	dir, err := config.EnsureDataDir()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "bhub.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() { _ = f.Close() }, nil
}

func newTransport(s config.Settings) *transport.HTTP {
	ua := s.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	return transport.NewHTTP(transport.Options{UserAgent: ua, Timeout: s.Timeout})
}

func newClient(s config.Settings, log *slog.Logger, skipIcons bool) *catalog.Client {
	return catalog.NewClient(newTransport(s), catalog.ClientOptions{BaseURL: s.BaseURL, Logger: log, SkipIcons: skipIcons})
}

// openPipeline opens the ledger under the install root and returns a
// pipeline recording into it. The caller closes the repository.
func openPipeline(s config.Settings, log *slog.Logger, skipVerify bool) (*install.Pipeline, *ledger.Repository, error) {
	repo, err := ledger.Open(config.LedgerPath(s.InstallRoot))
	if err != nil {
		return nil, nil, err
	}
	p := install.New(install.Options{
		Root:       s.InstallRoot,
		Transport:  newTransport(s),
		SkipVerify: skipVerify || !s.Verify(),
		Recorder:   repo,
		Logger:     log,
	})
	return p, repo, nil
}
