// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review drives a workflow controller from a line-oriented
// command loop: pick or drop a PDF, extract it, edit the rows and export
// them.
package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/internal/selection"
	"github.com/pdiddy/signage-review/internal/workflow"
	"github.com/pdiddy/signage-review/pkg/types"
)

// ErrUsage is returned when a command is malformed.
var ErrUsage = errors.New("usage")

const prompt = "> "

const helpText = `Commands:
  open <path>                 select a PDF
  drop <path>                 drop a PDF onto the session
  submit                      extract signage records from the selected PDF
  list                        show the records
  set <row> <field> <value>   edit a field (rows start at 1)
  csv                         export sinalizacao.csv
  xlsx                        export sinalizacao.xlsx
  status                      show the session state
  dump                        print the records as YAML
  reset                       clear the session
  help                        show this text
  quit                        leave the session
Fields: tipologia, codigo, descricao, pavimento, quantidade`

// Session reads commands and applies them to a controller.
type Session struct {
	Controller *workflow.Controller
	Out        io.Writer
	Logger     *slog.Logger

	// Open loads a file from disk. Defaults to selection.CandidateFromPath.
	Open func(path string) (selection.Candidate, error)

	// Prompt is printed before each command when set.
	Prompt bool
}

// NewSession returns a session writing to out.
func NewSession(c *workflow.Controller, out io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{Controller: c, Out: out, Logger: logger, Open: selection.CandidateFromPath}
}

// Run executes commands from in until quit, end of input, or ctx is
// done. Command failures are reported and the loop continues.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		if s.Prompt {
			fmt.Fprint(s.Out, prompt)
		}
		if !sc.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		quit, err := s.Exec(ctx, sc.Text())
		if err != nil {
			fmt.Fprintf(s.Out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return sc.Err()
}

// Exec runs one command line. It reports quit=true for quit and exit.
func (s *Session) Exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	// rest keeps the argument text as typed, for paths with inner spaces.
	rest := strings.TrimSpace(strings.TrimSpace(line)[len(fields[0]):])
	s.logger().Debug("review.command", "command", cmd, "args", len(args))

	switch cmd {
	case "open":
		return false, s.open(rest, false)
	case "drop":
		return false, s.open(rest, true)
	case "submit":
		return false, s.submit(ctx)
	case "list", "ls":
		return false, s.list()
	case "set":
		return false, s.set(args)
	case "csv":
		return false, s.csv()
	case "xlsx":
		return false, s.xlsx(ctx)
	case "status":
		return false, s.status()
	case "dump":
		return false, s.dump()
	case "reset":
		s.Controller.Reset()
		fmt.Fprintln(s.Out, "Session cleared.")
		return false, nil
	case "help", "?":
		fmt.Fprintln(s.Out, helpText)
		return false, nil
	case "quit", "exit":
		return true, nil
	}
	return false, fmt.Errorf("unknown command %q (try help)", cmd)
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Session) open(path string, drop bool) error {
	if path == "" {
		return fmt.Errorf("%w: open <path>", ErrUsage)
	}
	load := s.Open
	if load == nil {
		load = selection.CandidateFromPath
	}
	cand, err := load(path)
	if err != nil {
		return err
	}

	if drop {
		s.Controller.DragEnter()
		err = s.Controller.Drop(cand)
	} else {
		err = s.Controller.Select(cand)
	}
	if err != nil {
		return errors.New(s.Controller.Snapshot().ErrorMessage)
	}

	f := s.Controller.Snapshot().SelectedFile
	if f.Pages > 0 {
		fmt.Fprintf(s.Out, "Selected %s (%d bytes, %d pages)\n", f.Name, f.Size(), f.Pages)
	} else {
		fmt.Fprintf(s.Out, "Selected %s (%d bytes)\n", f.Name, f.Size())
	}
	return nil
}

func (s *Session) submit(ctx context.Context) error {
	if err := s.Controller.Submit(ctx); err != nil {
		if errors.Is(err, workflow.ErrSubmitDisabled) {
			return errors.New("nothing to submit: open a PDF first")
		}
		return errors.New(s.Controller.Snapshot().ErrorMessage)
	}
	st := s.Controller.Snapshot()
	fmt.Fprintf(s.Out, "Extracted %d records from %s\n", len(st.Records), st.SelectedFile.Name)
	if st.Metadata.Partial() {
		fmt.Fprintf(s.Out, "Warning: %d of %d chunks failed: %v\n",
			len(st.Metadata.FailedChunks), st.Metadata.TotalChunks, st.Metadata.FailedChunks)
	}
	return nil
}

func (s *Session) list() error {
	FormatRecords(s.Out, s.Controller.Snapshot().Records)
	return nil
}

func (s *Session) set(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: set <row> <field> <value>", ErrUsage)
	}
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: row must be a number, got %q", ErrUsage, args[0])
	}
	field, err := types.ParseField(args[1])
	if err != nil {
		return err
	}
	value := strings.Join(args[2:], " ")

	if err := s.Controller.UpdateField(row-1, field, value); err != nil {
		return err
	}
	rec := s.Controller.Snapshot().Records[row-1]
	fmt.Fprintf(s.Out, "Row %d %s = %s\n", row, field, rec.Get(field))
	return nil
}

func (s *Session) csv() error {
	data, err := s.Controller.ExportCSV()
	if errors.Is(err, workflow.ErrNoRecords) {
		return errors.New("nothing to export")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Wrote %s (%d bytes)\n", export.CSVFileName, len(data))
	return nil
}

func (s *Session) xlsx(ctx context.Context) error {
	data, err := s.Controller.ExportSpreadsheet(ctx)
	if errors.Is(err, workflow.ErrNoRecords) {
		return errors.New("nothing to export")
	}
	if err != nil {
		return errors.New(export.MsgSpreadsheetFailed)
	}
	fmt.Fprintf(s.Out, "Wrote %s (%d bytes)\n", export.SpreadsheetFileName, len(data))

	summary, err := export.InspectSpreadsheet(data)
	if err != nil {
		s.logger().Warn("review.xlsx.unreadable", "err", err)
		return nil
	}
	fmt.Fprintf(s.Out, "  sheet %q: %d rows, columns %s\n",
		summary.Sheet, summary.Rows, strings.Join(summary.Header, ", "))
	return nil
}

func (s *Session) status() error {
	st := s.Controller.Snapshot()
	fmt.Fprintf(s.Out, "Phase:   %s\n", st.Phase)
	if st.HasFile() {
		fmt.Fprintf(s.Out, "File:    %s (%d bytes)\n", st.SelectedFile.Name, st.SelectedFile.Size())
	} else {
		fmt.Fprintln(s.Out, "File:    none")
	}
	fmt.Fprintf(s.Out, "Records: %d\n", len(st.Records))
	if m := st.Metadata; m != nil {
		fmt.Fprintf(s.Out, "Chunks:  %d/%d processed", m.ProcessedChunks, m.TotalChunks)
		if len(m.FailedChunks) > 0 {
			fmt.Fprintf(s.Out, ", failed %v", m.FailedChunks)
		}
		fmt.Fprintln(s.Out)
	}
	if st.ErrorMessage != "" {
		fmt.Fprintf(s.Out, "Error:   %s\n", st.ErrorMessage)
	}
	return nil
}

func (s *Session) dump() error {
	enc := yaml.NewEncoder(s.Out)
	enc.SetIndent(2)
	if err := enc.Encode(s.Controller.Snapshot().Records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return enc.Close()
}
