package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/taxease/internal/app"
	"github.com/dvloznov/taxease/internal/gcsuploader"
	"github.com/dvloznov/taxease/internal/logger"
	"github.com/dvloznov/taxease/internal/pipeline"
)

func newIngestCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "ingest <file.csv|gs://bucket/object.csv>",
		Short: "Run the upload pipeline on a statement and store its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			name := filepath.Base(src)
			if gcsuploader.IsURI(src) {
				name = gcsuploader.FilenameFromURI(src)
			}
			if !strings.EqualFold(filepath.Ext(name), ".csv") {
				return fmt.Errorf("only CSV files are supported: %s", src)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			ctx = logger.WithContext(ctx, log)

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := readSource(ctx, a, src)
			if err != nil {
				return err
			}

			state := &pipeline.PipelineState{SessionID: sessionID, Filename: name, Raw: data}
			if err := a.Upload.Run(ctx, state); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderSummary(out, name, state.Summary)
			fmt.Fprintf(out, "\nSession: %s\n", state.SessionID)
			if state.ArchiveURI != "" {
				fmt.Fprintf(out, "Archived: %s\n", state.ArchiveURI)
			}
			if state.UploadID != "" {
				fmt.Fprintf(out, "Exported upload: %s\n", state.UploadID)
			}
			for _, w := range state.Warnings {
				expenseRed.Fprintf(out, "Warning: %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "existing session id to store the summary under (empty or unknown ids start a new session)")
	return cmd
}

// readSource reads a local path, or a gs:// URI through the configured
// object store client.
func readSource(ctx context.Context, a *app.App, src string) ([]byte, error) {
	if !gcsuploader.IsURI(src) {
		return os.ReadFile(src)
	}
	objects := a.Objects
	if objects == nil {
		c, err := gcsuploader.NewClient(ctx, cfg.GoogleCredentialsFile, log)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		objects = c
	}
	return objects.Download(ctx, src)
}
