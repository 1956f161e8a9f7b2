package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// promptLine prints label and reads one line from the command's input.
func promptLine(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}

// password returns the --password flag or prompts for it.
func password(cmd *cobra.Command, flagValue string) (string, error) {
	pw := flagValue
	if pw == "" {
		var err error
		if pw, err = promptLine(cmd, "Password: "); err != nil {
			return "", err
		}
	}
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}
