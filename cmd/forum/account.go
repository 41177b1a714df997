package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
)

func init() {
	loginCmd.Flags().StringP("user", "u", "", "username or email")
	registerCmd.Flags().String("username", "", "username")
	registerCmd.Flags().String("email", "", "email address")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		reader := bufio.NewReader(cmd.InOrStdin())
		user, _ := cmd.Flags().GetString("user")
		if user == "" {
			if user, err = promptLine(reader, cmd.OutOrStdout(), "Username or Email"); err != nil {
				return err
			}
		}
		password, err := promptSecret(reader, cmd.OutOrStdout(), "Password")
		if err != nil {
			return err
		}

		u, err := a.accounts.Login(cmd.Context(), account.LoginForm{UsernameOrEmail: user, Password: password})
		if err != nil {
			return userError(err, account.MsgLoginFailed)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Login successful! Welcome, %s.\n", u.Username)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		form := account.RegisterForm{}
		form.Username, _ = cmd.Flags().GetString("username")
		form.Email, _ = cmd.Flags().GetString("email")
		if form.Username == "" {
			if form.Username, err = promptLine(reader, out, "Username"); err != nil {
				return err
			}
		}
		if form.Email == "" {
			if form.Email, err = promptLine(reader, out, "Email"); err != nil {
				return err
			}
		}
		if form.Password, err = promptSecret(reader, out, "Password"); err != nil {
			return err
		}
		if form.ConfirmPassword, err = promptSecret(reader, out, "Confirm Password"); err != nil {
			return err
		}

		u, err := a.accounts.Register(cmd.Context(), form)
		if err != nil {
			return userError(err, account.MsgRegisterFailed)
		}
		fmt.Fprintf(out, "Registration successful! Logged in as %s.\n", u.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.accounts.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.accounts.Current(cmd.Context())
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "guest")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", u.Username, u.ID)
		return nil
	},
}

func promptLine(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(reader, out, label)
	}

	fmt.Fprintf(out, "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}
