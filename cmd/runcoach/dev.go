package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajohnson23/runcoach/internal/devserver"
)

func newDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development helpers",
	}

	cmd.AddCommand(newDevServeCmd())
	return cmd
}

func newDevServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local mock of the coaching backend",
		Long:  "Starts an in-memory mock backend with a dev account, canned coach replies, and a seeded training schedule. Point api.base_url at it to work offline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevServe(cmd, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}

func runDevServe(cmd *cobra.Command, port int) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	return devserver.Start(ctx, devserver.StartOpts{
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}
