package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func loginArg(args []string) (string, error) {
	login := strings.TrimSpace(args[0])
	if login == "" {
		return "", errors.New("login must not be empty")
	}
	return login, nil
}

func newRegisterCmd(s *state) *cobra.Command {
	var pw string
	cmd := &cobra.Command{
		Use:   "register <login>",
		Short: "Create an account with its default category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			login, err := loginArg(args)
			if err != nil {
				return err
			}
			secret, err := password(cmd, pw)
			if err != nil {
				return err
			}
			ok, err := s.app.Directory.Register(cmd.Context(), login, secret)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("login %q is already taken", login)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", login)
			return nil
		},
	}
	cmd.Flags().StringVar(&pw, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLoginCmd(s *state) *cobra.Command {
	var pw string
	cmd := &cobra.Command{
		Use:   "login <login>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			login, err := loginArg(args)
			if err != nil {
				return err
			}
			secret, err := password(cmd, pw)
			if err != nil {
				return err
			}
			ok, err := s.app.Directory.Authenticate(cmd.Context(), login, secret)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("invalid login or password")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", login)
			return nil
		},
	}
	cmd.Flags().StringVar(&pw, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Directory.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			login, ok := s.app.Directory.CurrentLogin()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			id, _ := s.app.Directory.CurrentUserID()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", login, id)
			return nil
		},
	}
}
