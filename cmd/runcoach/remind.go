package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajohnson23/runcoach/internal/api"
	"github.com/ajohnson23/runcoach/internal/config"
	"github.com/ajohnson23/runcoach/internal/push"
	"github.com/ajohnson23/runcoach/internal/reminders"
	"github.com/ajohnson23/runcoach/internal/store"
)

func newRemindCmd() *cobra.Command {
	var (
		configPath string
		cronExpr   string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send workout reminders on a schedule",
		Long:  "Fetches the workout schedule and delivers a local notification for pending workouts on a cron cadence. Use --once to fire a single reminder immediately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemind(cmd, configPath, cronExpr, once)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "5-field cron expression (overrides config)")
	cmd.Flags().BoolVar(&once, "once", false, "fire one reminder now and exit")
	return cmd
}

func runRemind(cmd *cobra.Command, configPath, cronExpr string, once bool) error {
	cfg, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	send, cleanup, err := reminderSender(cfg, st, client)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := &reminders.Scheduler{
		Expr: cronExpr,
		Workouts: func(ctx context.Context) ([]api.Workout, error) {
			return client.Workouts(ctx)
		},
		Send: send,
	}
	if sched.Expr == "" {
		sched.Expr = cfg.Reminders
	}

	out := cmd.OutOrStdout()
	if once {
		if err := sched.RunOnce(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out, "Reminder check complete.")
		return nil
	}

	if sched.Expr == "" {
		return fmt.Errorf("no cron expression (set reminders in config or pass --cron)")
	}
	next, err := reminders.NextRun(sched.Expr, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Reminders scheduled (%s), next at %s. Ctrl-C to stop.\n", sched.Expr, next.Format(time.RFC1123))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// reminderSender delivers reminders through the push coordinator when a
// gateway is configured, falling back to the local notify command.
func reminderSender(cfg *config.Config, st *store.Store, client *api.Client) (func(context.Context, string, string, map[string]string) error, func(), error) {
	coord, err := newCoordinator(cfg, client, st)
	if err == nil {
		return coord.SendLocal, func() { coord.Close() }, nil
	}
	if !errors.Is(err, errPushDisabled) {
		return nil, nil, err
	}

	notifier := &push.Notifier{Command: cfg.Push.NotifyCommand}
	send := func(ctx context.Context, title, body string, data map[string]string) error {
		notifier.Display(push.Notification{Title: title, Body: body, Data: data})
		return nil
	}
	return send, func() {}, nil
}
