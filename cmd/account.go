package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dtroode/gophauth-server/internal/config"
	"github.com/dtroode/gophauth-server/internal/model"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// NewAccountCmd creates the account subcommand.
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountAddCmd())
	return cmd
}

func newAccountAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <identifier>",
		Short: "Register an account",
		Long: `Register an account in the configured store. The password is read
from the terminal without echo, or from the first line of stdin when it is not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreBackend == config.BackendMemory {
				return errors.New("account add needs a persistent store, set STORE_BACKEND=postgres")
			}

			pw, err := promptPassword(cmd.ErrOrStderr(), cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			d, err := buildDeps(cmd.Context(), cfg, lg, nil)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.auth.Register(cmd.Context(), model.Credentials{Identifier: args[0], Password: pw}); err != nil {
				return err
			}

			cmd.Printf("Account %q registered\n", args[0])
			return nil
		},
	}
}

// promptPassword reads a password without echo from a terminal on stdin,
// or the first line of in otherwise.
func promptPassword(w io.Writer, in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(w, "Password: ")
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
