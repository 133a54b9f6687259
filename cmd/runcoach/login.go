package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ajohnson23/runcoach/internal/api"
	"github.com/ajohnson23/runcoach/internal/config"
	"github.com/ajohnson23/runcoach/internal/store"
)

func newLoginCmd() *cobra.Command {
	var (
		configPath string
		email      string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the coaching service",
		Long:  "Authenticates with the coaching backend and saves the session locally. Push notifications are activated after a successful login when a gateway is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, configPath, email, password)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if omitted)")
	return cmd
}

func runLogin(cmd *cobra.Command, configPath, email, password string) error {
	cfg, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	if email == "" {
		email, err = promptLine(cmd, "Email: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		password, err = promptPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
	}

	resp, err := client.Login(cmd.Context(), email, password)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("invalid email or password")
		}
		return fmt.Errorf("%s", errorMessage(err))
	}

	st.SaveSession(resp.Token)
	fmt.Fprintf(out, "Logged in as %s <%s>\n", resp.User.Name, resp.User.Email)

	activatePush(cmd.Context(), cmd, cfg, st, client)
	return nil
}

// activatePush runs the push activation sequence after login. Failures are
// reported but never fail the login itself.
func activatePush(ctx context.Context, cmd *cobra.Command, cfg *config.Config, st *store.Store, client *api.Client) {
	coord, err := newCoordinator(cfg, client, st)
	if err != nil {
		if !errors.Is(err, errPushDisabled) {
			fmt.Fprintf(cmd.OutOrStdout(), "Push setup skipped: %v\n", err)
		}
		return
	}
	defer coord.Close()

	state := coord.Activate(ctx, true)
	fmt.Fprintf(cmd.OutOrStdout(), "Push notifications: %s\n", state)
}

func newRegisterCmd() *cobra.Command {
	var (
		configPath string
		name       string
		email      string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, configPath, name, email, password)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if omitted)")
	return cmd
}

func runRegister(cmd *cobra.Command, configPath, name, email, password string) error {
	_, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if email == "" {
		email, err = promptLine(cmd, "Email: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		password, err = promptPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
	}

	user, err := client.Register(cmd.Context(), name, email, password)
	if err != nil {
		return fmt.Errorf("%s", errorMessage(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s <%s>. Run 'runcoach login' to sign in.\n", user.Name, user.Email)
	return nil
}

func newLogoutCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and discard the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, _, err := openApp(configPath)
			if err != nil {
				return err
			}
			defer st.Close()
			st.ClearSession()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	return cmd
}

// promptLine reads one line from the command's input stream.
func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read otherwise.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(data), nil
	}
	return promptLine(cmd, prompt)
}
