package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/atinyakov/GameLauncher/internal/db"
	"github.com/atinyakov/GameLauncher/internal/models"
)

func newHistoryCmd(s *state) *cobra.Command {
	var wipe bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently played games, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wipe {
				if err := s.app.History.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}
			recent, err := s.app.History.Recent()
			if err != nil {
				return err
			}
			for i, name := range recent {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wipe, "clear", false, "empty the history")
	return cmd
}

func newThemeCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or change the UI theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{models.ThemeLight, models.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), s.app.Preferences.Theme())
				return nil
			}
			if err := s.app.Preferences.SetTheme(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", args[0])
			return nil
		},
	}
}

func newRepairCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Move games with a missing category to the default category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := s.app.Catalog.RepairOrphanCategories(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "repaired %d games\n", n)
			return nil
		},
	}
}

func newMigrateCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Short:       "Apply pending schema migrations and print the schema version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.loadOptions(); err != nil {
				return err
			}
			if err := s.options.EnsureDataDir(); err != nil {
				return err
			}
			driver, err := db.ParseDriver(s.options.Driver)
			if err != nil {
				return err
			}
			conn, err := db.Open(driver, s.options.DSN())
			if err != nil {
				return err
			}
			if err := conn.Close(); err != nil {
				return err
			}
			version, dirty, err := db.SchemaVersion(driver, s.options.DSN())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (driver %s, dirty %t)\n", version, driver, dirty)
			return nil
		},
	}
}

func newVersionCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\nGo: %s\n",
				s.build.Version, s.build.BuildDate, runtime.Version())
		},
	}
}
