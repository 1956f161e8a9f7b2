package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atinyakov/GameLauncher/internal/models"
)

func nonEmpty(what, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s must not be empty", what)
	}
	return v, nil
}

// categoryID resolves a category name, defaulting to the default category.
func (s *state) categoryID(ctx context.Context, name string) (int64, error) {
	if name == "" {
		name = models.DefaultCategoryName
	}
	id, err := s.app.Catalog.CategoryIDByName(ctx, name)
	if errors.Is(err, models.ErrNotFound) {
		return 0, fmt.Errorf("no category named %q", name)
	}
	return id, err
}

func newCategoryCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := nonEmpty("category name", args[0])
			if err != nil {
				return err
			}
			ok, err := s.app.Catalog.AddCategory(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("category %q already exists", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added category %s\n", name)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories, default first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := s.app.Catalog.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	var reassign bool
	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Long:  `Delete a category. A category that still has games is refused unless
--reassign moves them to the default category first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if reassign {
				moved, err := s.app.Catalog.RemoveCategory(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted category %s, moved %d games to %s\n", name, moved, models.DefaultCategoryName)
				return nil
			}
			id, err := s.categoryID(cmd.Context(), name)
			if err != nil {
				return err
			}
			err = s.app.Catalog.DeleteCategory(cmd.Context(), id)
			switch {
			case errors.Is(err, models.ErrDefaultCategory):
				return fmt.Errorf("the %s category cannot be deleted", models.DefaultCategoryName)
			case errors.Is(err, models.ErrConflict):
				return fmt.Errorf("category %q still has games; use --reassign", name)
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted category %s\n", name)
			return nil
		},
	}
	del.Flags().BoolVar(&reassign, "reassign", false, "move the category's games to the default category")

	cmd.AddCommand(add, list, del)
	return cmd
}

func newGameCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Manage games",
	}

	var addCategory string
	add := &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Add a game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := nonEmpty("game name", args[0])
			if err != nil {
				return err
			}
			path, err := nonEmpty("game path", args[1])
			if err != nil {
				return err
			}
			categoryID, err := s.categoryID(cmd.Context(), addCategory)
			if err != nil {
				return err
			}
			game, err := s.app.Catalog.AddGame(cmd.Context(), name, path, categoryID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added game %s\n", game.Name)
			return nil
		},
	}
	add.Flags().StringVar(&addCategory, "category", "", "category name (default "+models.DefaultCategoryName+")")

	var (
		listCategory string
		reverse      bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List games by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				games []models.Game
				err   error
			)
			if listCategory != "" {
				id, cerr := s.categoryID(cmd.Context(), listCategory)
				if cerr != nil {
					return cerr
				}
				games, err = s.app.Catalog.ListGamesByCategory(cmd.Context(), id)
			} else {
				games, err = s.app.Catalog.ListGames(cmd.Context())
			}
			if err != nil {
				return err
			}
			if reverse {
				slices.Reverse(games)
			}
			return s.printGames(cmd, games)
		},
	}
	list.Flags().StringVar(&listCategory, "category", "", "only list games of this category")
	list.Flags().BoolVarP(&reverse, "reverse", "r", false, "list games Z to A")

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := s.app.Catalog.GetGame(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.printGames(cmd, []models.Game{game})
		},
	}

	var editCategory string
	edit := &cobra.Command{
		Use:   "edit <old-name> <new-name>",
		Short: "Rename a game or move it to another category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newName, err := nonEmpty("game name", args[1])
			if err != nil {
				return err
			}
			current, err := s.app.Catalog.GetGame(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			categoryID := current.CategoryID
			if editCategory != "" {
				if categoryID, err = s.categoryID(cmd.Context(), editCategory); err != nil {
					return err
				}
			}
			game, err := s.app.Catalog.UpdateGame(cmd.Context(), current.Name, newName, categoryID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated game %s\n", game.Name)
			return nil
		},
	}
	edit.Flags().StringVar(&editCategory, "category", "", "move the game to this category")

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Catalog.DeleteGame(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted game %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, show, edit, del)
	return cmd
}

func (s *state) printGames(cmd *cobra.Command, games []models.Game) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tPATH")
	names := map[int64]string{}
	for _, g := range games {
		category, ok := names[g.CategoryID]
		if !ok {
			var err error
			category, err = s.app.Catalog.CategoryNameByID(cmd.Context(), g.CategoryID)
			if errors.Is(err, models.ErrNotFound) {
				category = "?"
			} else if err != nil {
				return err
			}
			names[g.CategoryID] = category
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Name, category, g.Path)
	}
	return tw.Flush()
}

func newPlayCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "play <name>",
		Short: "Record a play and print the game's executable path",
		Long:  `Record a play in the recent-games history and print the path of the
game's executable. Starting the executable is left to the caller.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := s.app.Catalog.Play(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), game.Path)
			return nil
		},
	}
}
