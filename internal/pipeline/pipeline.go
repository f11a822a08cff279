// Package pipeline runs an uploaded bank statement through parsing,
// persistence and the optional archive and export sinks.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/taxease/internal/domain"
)

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	SessionID string
	Filename  string
	Raw       []byte

	Summary    *domain.Summary
	ArchiveURI string
	UploadID   string

	// Warnings collects failures of best-effort steps.
	Warnings []string
}

// Options adds the optional sinks. Nil fields are skipped.
type Options struct {
	Archive  Archiver
	Exporter Exporter
}

type stage struct {
	step       PipelineStep
	bestEffort bool
}

// Pipeline executes its steps in order, stopping at the first required
// step that fails.
type Pipeline struct {
	stages []stage
	log    zerolog.Logger
}

// NewUploadPipeline wires parse, persist summary, archive raw CSV and
// export transactions. Archive and export never fail the upload.
func NewUploadPipeline(parser StatementParser, store SummaryStore, opts Options, log zerolog.Logger) *Pipeline {
	p := &Pipeline{log: log}
	p.add(&ParseStep{Parser: parser}, false)
	p.add(&PersistSummaryStep{Store: store}, false)
	if opts.Archive != nil {
		p.add(&ArchiveRawStep{Archive: opts.Archive}, true)
	}
	if opts.Exporter != nil {
		p.add(&ExportTransactionsStep{Exporter: opts.Exporter}, true)
	}
	return p
}

func (p *Pipeline) add(step PipelineStep, bestEffort bool) {
	p.stages = append(p.stages, stage{step: step, bestEffort: bestEffort})
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.step.Name()
	}
	return names
}

// Run executes every step against state. Errors from required steps are
// returned wrapped with the step name; errors.As still reaches the cause.
func (p *Pipeline) Run(ctx context.Context, state *PipelineState) error {
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := s.step.Name()
		if err := s.step.Execute(ctx, state); err != nil {
			if !s.bestEffort {
				return fmt.Errorf("Run: %s: %w", name, err)
			}
			p.log.Warn().Err(err).
				Str("step", name).
				Str("session_id", state.SessionID).
				Msg("Optional upload step failed")
			state.Warnings = append(state.Warnings, name+": "+err.Error())
			continue
		}
		p.log.Debug().Str("step", name).Str("session_id", state.SessionID).Msg("Upload step done")
	}
	return nil
}
