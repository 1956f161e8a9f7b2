// Package cli implements the launcher command line on top of the shared
// data directory.
package cli

import (
	"context"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/app"
	"github.com/atinyakov/GameLauncher/internal/config"
	"github.com/atinyakov/GameLauncher/internal/logger"
	"github.com/atinyakov/GameLauncher/internal/metrics"
)

// BuildInfo is printed by the version command.
type BuildInfo struct {
	Version   string
	BuildDate string
}

// skipApp marks commands that run without opening the data directory.
const skipApp = "skip-app"

// state is shared by all subcommands of one invocation.
type state struct {
	configPath string
	dataDir    string
	logLevel   string

	build   BuildInfo
	options *config.Options
	log     *logger.Logger
	app     *app.App
}

// Execute runs the launcher with args, reading prompts from in and writing
// results to out. The data directory is closed before it returns.
func Execute(ctx context.Context, build BuildInfo, args []string, in io.Reader, out io.Writer) error {
	root, s := newRootCommand(build)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	err := root.ExecuteContext(ctx)
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCommand(build BuildInfo) (*cobra.Command, *state) {
	s := &state{build: build, log: logger.New()}

	root := &cobra.Command{
		Use:   "launcher",
		Short: "Local game library and launcher",
		Long:  `Keeps a per-user catalog of games and categories in a local database,
remembers the logged-in user between runs and tracks recently played games.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.open,
	}

	root.PersistentFlags().StringVar(&s.configPath, "config", "", "path to config.yaml (default <data dir>/config.yaml)")
	root.PersistentFlags().StringVar(&s.dataDir, "data-dir", "", "data directory (default ~/Documents/GameLauncher)")
	root.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRegisterCmd(s),
		newLoginCmd(s),
		newLogoutCmd(s),
		newWhoamiCmd(s),
		newCategoryCmd(s),
		newGameCmd(s),
		newPlayCmd(s),
		newHistoryCmd(s),
		newThemeCmd(s),
		newRepairCmd(s),
		newMigrateCmd(s),
		newVersionCmd(s),
	)
	return root, s
}

// loadOptions resolves config file, environment and flags, in that order.
func (s *state) loadOptions() error {
	path := s.configPath
	if path == "" && s.dataDir != "" {
		path = filepath.Join(s.dataDir, config.ConfigFile)
	}
	opts, err := config.Load(path)
	if err != nil {
		return err
	}
	if s.dataDir != "" {
		opts.DataDir = s.dataDir
	}
	if s.logLevel != "" {
		opts.LogLevel = s.logLevel
	}
	s.options = opts
	return s.log.Init(opts.LogLevel)
}

func (s *state) open(cmd *cobra.Command, args []string) error {
	if _, ok := cmd.Annotations[skipApp]; ok {
		return nil
	}
	if err := s.loadOptions(); err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), s.options, metrics.Noop{}, s.log.Log)
	if err != nil {
		return err
	}
	s.app = a
	return nil
}

func (s *state) close() error {
	defer func() { _ = s.log.Log.Sync() }()
	if s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	if err != nil {
		s.log.Log.Warn("failed to close database", zap.Error(err))
	}
	return err
}
