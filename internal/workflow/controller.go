// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow implements the ingestion-and-review state machine:
// it owns the selected file, the record sequence and the phase, wires
// selection into extraction, and exposes edits and exports.
//
// Phases move Idle → Loading → Idle on success or Error on failure. An
// Error phase clears on the next successful selection or extraction.
// All mutations are serialized by the controller; network calls run
// outside its lock so reads and edits stay responsive.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/internal/extraction"
	"github.com/pdiddy/signage-review/internal/records"
	"github.com/pdiddy/signage-review/internal/selection"
	"github.com/pdiddy/signage-review/pkg/types"
)

var (
	// ErrSubmitDisabled is returned when Submit is a no-op: no file is
	// selected or an extraction is already in flight.
	ErrSubmitDisabled = errors.New("submit disabled")

	// ErrNoRecords is returned when an export is a no-op because there
	// is nothing to export.
	ErrNoRecords = errors.New("no records to export")
)

// Extractor converts a PDF into records.
type Extractor interface {
	Extract(ctx context.Context, file selection.FileRef) (*extraction.Result, error)
}

// SpreadsheetRenderer renders records into an XLSX payload.
type SpreadsheetRenderer interface {
	Render(ctx context.Context, recs []types.SignageRecord) ([]byte, error)
}

// Downloader delivers an exported file to the user.
type Downloader interface {
	Download(name string, data []byte) error
}

// Options configures a Controller.
type Options struct {
	Extractor   Extractor
	Spreadsheet SpreadsheetRenderer
	Downloader  Downloader

	// Timeout bounds each extraction and spreadsheet request. Zero
	// leaves the caller's context as the only bound.
	Timeout time.Duration

	CSV    export.CSVOptions
	Logger *slog.Logger

	// CountPages overrides the page counter used on selection.
	CountPages selection.PageCounter
}

// Controller owns the workflow state.
type Controller struct {
	mu    sync.Mutex
	state State
	sel   selection.Selector

	// generation increments on Reset so results of an extraction started
	// before the reset are dropped.
	generation uint64

	extractor   Extractor
	spreadsheet SpreadsheetRenderer
	downloader  Downloader
	timeout     time.Duration
	csv         export.CSVOptions
	logger      *slog.Logger
}

// New returns a controller in the Idle phase with nothing selected.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		extractor:   opts.Extractor,
		spreadsheet: opts.Spreadsheet,
		downloader:  opts.Downloader,
		timeout:     opts.Timeout,
		csv:         opts.CSV,
		logger:      logger,
	}
	c.sel.CountPages = opts.CountPages
	c.state.Records = records.ReplaceAll(nil)
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// CanSubmit reports whether Submit would start an extraction.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Controller) canSubmitLocked() bool {
	return c.state.SelectedFile != nil && c.state.Phase != PhaseLoading
}

// Select offers a picked file. A PDF replaces the selection and clears
// an Error phase; anything else keeps the selection and enters Error
// with the validation message, unless an extraction is in flight.
func (c *Controller) Select(cand selection.Candidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, err := c.sel.Select(cand)
	return c.applySelectionLocked(ref, err)
}

// DragEnter marks a drag gesture over the drop target.
func (c *Controller) DragEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.DragEnter()
	c.state.DragActive = c.sel.DragActive()
}

// DragOver keeps the drag affordance active.
func (c *Controller) DragOver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.DragOver()
	c.state.DragActive = c.sel.DragActive()
}

// DragLeave clears the drag affordance.
func (c *Controller) DragLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.DragLeave()
	c.state.DragActive = c.sel.DragActive()
}

// Drop ends a drag gesture with a dropped file and validates it like
// Select. The drag affordance is cleared either way.
func (c *Controller) Drop(cand selection.Candidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, err := c.sel.Drop(cand)
	c.state.DragActive = c.sel.DragActive()
	return c.applySelectionLocked(ref, err)
}

func (c *Controller) applySelectionLocked(ref selection.FileRef, err error) error {
	if err != nil {
		c.logger.Warn("selection.rejected", "err", err)
		c.failLocked(selection.MsgUnsupportedType)
		return err
	}
	c.state.SelectedFile = &ref
	if c.state.Phase == PhaseError {
		c.state.Phase = PhaseIdle
		c.state.ErrorMessage = ""
	}
	c.logger.Info("selection.ok", "file", ref.Name, "bytes", ref.Size(), "pages", ref.Pages)
	return nil
}

// Submit sends the selected file for extraction and blocks until it
// resolves. It returns ErrSubmitDisabled without side effects when no
// file is selected or an extraction is already in flight. On success the
// records are replaced and the phase returns to Idle; on failure the
// phase becomes Error and the records are left as they were.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if !c.canSubmitLocked() {
		c.mu.Unlock()
		return ErrSubmitDisabled
	}
	file := *c.state.SelectedFile
	gen := c.generation
	c.state.Phase = PhaseLoading
	c.state.ErrorMessage = ""
	c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := c.extractor.Extract(ctx, file)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Info("extraction.discarded", "file", file.Name)
		return fmt.Errorf("extraction of %s discarded after reset", file.Name)
	}
	if err != nil {
		c.state.Phase = PhaseError
		c.state.ErrorMessage = extraction.UserMessage(err)
		return err
	}
	c.state.Records = records.Clone(res.Records)
	c.state.Metadata = res.Metadata
	c.state.Phase = PhaseIdle
	c.state.ErrorMessage = ""
	return nil
}

// UpdateField edits one field of the record at index. The phase is not
// affected.
func (c *Controller) UpdateField(index int, field types.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	recs, err := records.UpdateField(c.state.Records, index, field, value)
	if err != nil {
		return err
	}
	c.state.Records = recs
	return nil
}

// ExportCSV renders the current records as CSV and downloads them as
// sinalizacao.csv. It returns ErrNoRecords when there is nothing to
// export. A download failure enters the Error phase.
func (c *Controller) ExportCSV() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.state.Records) == 0 {
		return nil, ErrNoRecords
	}
	data := export.CSV(c.state.Records, c.csv)
	if c.downloader != nil {
		if err := c.downloader.Download(export.CSVFileName, data); err != nil {
			c.logger.Error("export.csv.failed", "err", err)
			c.failLocked(fmt.Sprintf("Erro ao salvar %s", export.CSVFileName))
			return nil, err
		}
	}
	c.logger.Info("export.csv.ok", "rows", len(c.state.Records), "bytes", len(data))
	return data, nil
}

// ExportSpreadsheet requests a workbook for the current records and
// downloads it as sinalizacao.xlsx. It returns ErrNoRecords when there
// is nothing to export. Failures enter the Error phase with a generic
// message and leave records and selection untouched, unless the session
// was reset while the request was in flight.
func (c *Controller) ExportSpreadsheet(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	if len(c.state.Records) == 0 {
		c.mu.Unlock()
		return nil, ErrNoRecords
	}
	recs := records.Clone(c.state.Records)
	gen := c.generation
	c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var data []byte
	err := export.ErrSpreadsheetFailed
	if c.spreadsheet != nil {
		data, err = c.spreadsheet.Render(ctx, recs)
	}
	if err == nil && c.downloader != nil {
		if derr := c.downloader.Download(export.SpreadsheetFileName, data); derr != nil {
			c.logger.Error("export.xlsx.save_failed", "err", derr)
			err = fmt.Errorf("%w: %w", export.ErrSpreadsheetFailed, derr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if gen == c.generation {
			c.failLocked(export.MsgSpreadsheetFailed)
		}
		return nil, err
	}
	return data, nil
}

// Reset returns the controller to its initial state. An extraction in
// flight keeps running but its result is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.sel.Clear()
	c.state = State{Records: records.ReplaceAll(nil)}
}

// failLocked enters the Error phase. While an extraction is in flight
// the phase stays Loading; the failure is still returned to the caller.
func (c *Controller) failLocked(msg string) {
	if c.state.Phase == PhaseLoading {
		return
	}
	c.state.Phase = PhaseError
	c.state.ErrorMessage = msg
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}
