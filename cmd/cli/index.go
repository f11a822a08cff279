package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the knowledge index from the configured corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.BuildIndex(ctx)
			if err != nil {
				return err
			}
			incomeColor.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks", n)
			fmt.Fprintf(cmd.OutOrStdout(), " from %s\n", cfg.KnowledgeDir)
			if cfg.IndexPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Index saved to %s\n", cfg.IndexPath)
			}
			return nil
		},
	}
}
