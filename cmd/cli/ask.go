package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/taxease/internal/chat"
)

func newAskCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a tax question using the knowledge index and configured LLMs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.BuildIndex(ctx); err != nil {
				log.Warn().Err(err).Msg("Knowledge index unavailable")
			}

			resp, err := a.Chat.Chat(ctx, chat.Request{
				SessionID: sessionID,
				Message:   strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Reply)
			provider := resp.Provider
			if provider == "" {
				provider = "scripted"
			}
			deductColor.Fprintf(cmd.ErrOrStderr(), "[%s] session %s\n", provider, resp.SessionID)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id whose uploaded summary is used as context")
	return cmd
}
