package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// PipelineStep is one stage of the upload flow.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// ParseStep parses state.Raw into state.Summary.
type ParseStep struct {
	Parser StatementParser
}

func (s *ParseStep) Name() string { return "parse" }

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	summary, err := s.Parser.ParseBytes(state.Raw)
	if err != nil {
		return err
	}
	state.Summary = summary
	return nil
}

// PersistSummaryStep resolves the session and stores the summary under it.
type PersistSummaryStep struct {
	Store SummaryStore
}

func (s *PersistSummaryStep) Name() string { return "persist_summary" }

func (s *PersistSummaryStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Summary == nil {
		return errors.New("no summary to persist")
	}
	sess, err := s.Store.EnsureSession(ctx, state.SessionID)
	if err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}
	state.SessionID = sess.ID

	if err := s.Store.PutSummary(ctx, sess.ID, state.Summary); err != nil {
		return fmt.Errorf("storing summary: %w", err)
	}
	return nil
}

// ArchiveRawStep uploads the original file.
type ArchiveRawStep struct {
	Archive Archiver
}

func (s *ArchiveRawStep) Name() string { return "archive_raw" }

func (s *ArchiveRawStep) Execute(ctx context.Context, state *PipelineState) error {
	uri, err := s.Archive.ArchiveStatement(ctx, state.SessionID, state.Filename, state.Raw)
	if err != nil {
		return err
	}
	state.ArchiveURI = uri
	return nil
}

// ExportTransactionsStep sends the classified rows to the exporter.
type ExportTransactionsStep struct {
	Exporter Exporter
}

func (s *ExportTransactionsStep) Name() string { return "export_transactions" }

func (s *ExportTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Summary == nil || len(state.Summary.Transactions) == 0 {
		return nil
	}
	uploadID, err := s.Exporter.ExportTransactions(ctx, state.SessionID, state.Summary.Transactions)
	if err != nil {
		return err
	}
	state.UploadID = uploadID
	return nil
}
