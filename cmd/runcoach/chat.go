package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajohnson23/runcoach/internal/chat"
	"github.com/ajohnson23/runcoach/internal/config"
)

func newChatCmd() *cobra.Command {
	var (
		configPath string
		message    string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with your AI running coach",
		Long:  "Opens an interactive conversation with the coach. Cached history is shown immediately and refreshed from the server in the background. Use --message to send a single message and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, message)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message and exit")
	return cmd
}

func runChat(cmd *cobra.Command, configPath, message string) error {
	_, st, client, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	ctrl := chat.New(client, st)

	// Cached history first, then the server's copy.
	if rows, err := st.Messages(); err == nil && len(rows) > 0 {
		seed := make([]chat.Message, 0, len(rows))
		for _, row := range rows {
			seed = append(seed, chat.FromRow(row))
		}
		ctrl.Seed(seed)
	}
	ctrl.LoadHistory(cmd.Context())

	if message != "" {
		before := len(ctrl.Log())
		ctrl.Submit(cmd.Context(), message)
		printMessages(out, ctrl.Log()[before:])
		return nil
	}

	printMessages(out, ctrl.Log())
	fmt.Fprintln(out, "Type a message and press enter. /quit to exit.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" || line == "/exit" {
			break
		}
		if line == "" {
			continue
		}
		before := len(ctrl.Log())
		ctrl.Submit(cmd.Context(), line)
		printMessages(out, ctrl.Log()[before:])
	}
	return scanner.Err()
}

// printMessages renders conversation entries, marking unconfirmed sends.
func printMessages(out io.Writer, msgs []chat.Message) {
	for _, m := range msgs {
		speaker := "coach"
		if m.FromUser {
			speaker = "you"
		}
		suffix := ""
		if m.State == chat.Pending {
			suffix = " (unconfirmed)"
		}
		fmt.Fprintf(out, "[%s] %s%s\n", speaker, m.Content, suffix)
	}
}
