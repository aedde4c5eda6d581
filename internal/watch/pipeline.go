package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/internal/selection"
	"github.com/pdiddy/signage-review/internal/workflow"
)

// Pipeline is a Handler that feeds each dropped file through the
// workflow: drop, extract, export CSV and optionally XLSX. Every drop
// starts from a fresh session.
type Pipeline struct {
	Controller *workflow.Controller

	// Spreadsheet also exports sinalizacao.xlsx after each extraction.
	Spreadsheet bool

	// Out receives one summary line per processed file. May be nil.
	Out    io.Writer
	Logger *slog.Logger
}

// DragEnter marks a file arriving in the folder.
func (p *Pipeline) DragEnter(path string) {
	p.logger().Debug("watch.enter", "file", filepath.Base(path))
	p.Controller.DragEnter()
}

// DragLeave marks a file removed before it settled.
func (p *Pipeline) DragLeave(path string) {
	p.logger().Debug("watch.leave", "file", filepath.Base(path))
	p.Controller.DragLeave()
}

// Drop processes a settled file.
func (p *Pipeline) Drop(ctx context.Context, path string) error {
	name := filepath.Base(path)
	cand, err := selection.CandidateFromPath(path)
	if err != nil {
		p.Controller.DragLeave()
		return err
	}

	p.Controller.Reset()
	if err := p.Controller.Drop(cand); err != nil {
		p.report("%s: %s\n", name, p.Controller.Snapshot().ErrorMessage)
		return err
	}
	if err := p.Controller.Submit(ctx); err != nil {
		p.report("%s: %s\n", name, p.Controller.Snapshot().ErrorMessage)
		return err
	}

	st := p.Controller.Snapshot()
	if len(st.Records) == 0 {
		p.report("%s: no records found\n", name)
		return nil
	}
	if _, err := p.Controller.ExportCSV(); err != nil {
		p.report("%s: %s\n", name, p.Controller.Snapshot().ErrorMessage)
		return err
	}
	written := export.CSVFileName

	if p.Spreadsheet {
		if _, err := p.Controller.ExportSpreadsheet(ctx); err != nil && !errors.Is(err, workflow.ErrNoRecords) {
			p.report("%s: %d records, wrote %s; %s\n", name, len(st.Records), written, export.MsgSpreadsheetFailed)
			return err
		}
		written += ", " + export.SpreadsheetFileName
	}

	p.report("%s: %d records, wrote %s\n", name, len(st.Records), written)
	if st.Metadata.Partial() {
		p.report("%s: warning: chunks %v failed\n", name, st.Metadata.FailedChunks)
	}
	return nil
}

func (p *Pipeline) report(format string, args ...any) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, format, args...)
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
