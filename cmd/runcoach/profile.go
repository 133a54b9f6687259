package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajohnson23/runcoach/internal/config"
)

func newProfileCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the logged-in runner's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	return cmd
}

func runProfile(cmd *cobra.Command, configPath string) error {
	_, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := client.Profile(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s", errorMessage(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name: %s\n", user.Name)
	fmt.Fprintf(out, "Email: %s\n", user.Email)
	return nil
}

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push notification commands",
	}

	cmd.AddCommand(newPushStatusCmd())
	cmd.AddCommand(newPushActivateCmd())
	cmd.AddCommand(newPushTestCmd())
	return cmd
}

func newPushStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show device registration and recent notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPushStatus(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	return cmd
}

func runPushStatus(cmd *cobra.Command, configPath string) error {
	_, st, _, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	device, ok := st.Device()
	if !ok {
		fmt.Fprintln(out, "No device registered. Run 'runcoach push activate'.")
	} else {
		fmt.Fprintf(out, "Push token: %s\n", device.PushToken)
		fmt.Fprintf(out, "Physical device: %t\n", device.Physical)
		fmt.Fprintf(out, "Permission granted: %t\n", device.PermissionGranted)
	}

	notes, err := st.RecentNotifications(10)
	if err != nil || len(notes) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nRecent notifications:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ReceivedAt.Format("2006-01-02 15:04"), n.Title, n.Body)
	}
	return w.Flush()
}

func newPushActivateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Run the push activation sequence",
		Long:  "Checks the device, requests notification permission, obtains a push token from the gateway, and registers it with the backend when logged in.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPushActivate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	return cmd
}

func runPushActivate(cmd *cobra.Command, configPath string) error {
	cfg, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	coord, err := newCoordinator(cfg, client, st)
	if err != nil {
		return err
	}
	defer coord.Close()

	_, authenticated := st.LoadSession()
	state := coord.Activate(cmd.Context(), authenticated)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Push state: %s\n", state)
	if token, ok := coord.Token(); ok {
		fmt.Fprintf(out, "Device token: %s\n", token)
	}
	if !authenticated {
		fmt.Fprintln(out, "Not logged in; token was not registered with the backend.")
	}
	return nil
}

func newPushTestCmd() *cobra.Command {
	var (
		configPath string
		title      string
		body       string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Schedule a local test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPushTest(cmd, configPath, title, body)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	cmd.Flags().StringVar(&title, "title", "RunCoach", "notification title")
	cmd.Flags().StringVar(&body, "body", "This is a test notification.", "notification body")
	return cmd
}

func runPushTest(cmd *cobra.Command, configPath, title, body string) error {
	cfg, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	coord, err := newCoordinator(cfg, client, st)
	if err != nil {
		return err
	}
	defer coord.Close()

	if err := coord.SendLocal(cmd.Context(), title, body, map[string]string{"type": "test"}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Test notification delivered.")
	return nil
}
