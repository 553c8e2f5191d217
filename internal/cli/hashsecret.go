package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrEthical07/goGate/password"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newHashSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret",
		Short: "Hash an admin secret for admin.secret_hash",
		Long: `Read an admin secret and print its argon2id hash.

On a terminal the secret is read without echo and asked for twice.
Otherwise the first line of stdin is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			hasher, err := password.NewArgon2(password.DefaultConfig())
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Admin secret: ")
		first, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		fmt.Fprint(prompt, "Repeat: ")
		second, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("secrets do not match")
		}
		return checkSecret(string(first))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return checkSecret(strings.TrimRight(line, "\r\n"))
}

func checkSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("empty secret")
	}
	return secret, nil
}
