package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/taxease/internal/config"
)

func newInitDBCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the session store, optionally wiping existing data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StoreBackend == config.StoreMemory {
				return fmt.Errorf("STORE_BACKEND=%s has nothing to initialize", cfg.StoreBackend)
			}
			ctx := context.Background()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if reset {
				if err := a.Store.Reset(ctx); err != nil {
					return err
				}
				expenseRed.Fprintf(cmd.OutOrStdout(), "Reset %s store\n", cfg.StoreBackend)
				return nil
			}
			incomeColor.Fprintf(cmd.OutOrStdout(), "Initialized %s store\n", cfg.StoreBackend)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "delete all sessions, summaries and messages")
	return cmd
}
