package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/internal/extraction"
	"github.com/pdiddy/signage-review/internal/review"
	"github.com/pdiddy/signage-review/internal/selection"
	"github.com/pdiddy/signage-review/internal/workflow"
	"github.com/pdiddy/signage-review/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract signage records from a PDF and export them",
	Long: `Extract uploads one PDF to the extraction service, prints the records
it returns, applies any --set corrections, and writes sinalizacao.csv to
the output directory. Use --xlsx to also request sinalizacao.xlsx from
the service and --verify to check the returned workbook.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Bool("csv", true, "write sinalizacao.csv")
	extractCmd.Flags().Bool("xlsx", false, "write sinalizacao.xlsx")
	extractCmd.Flags().Bool("verify", false, "open the returned workbook and compare its rows with the records (implies --xlsx)")
	extractCmd.Flags().Bool("json", false, "print records as JSON")
	extractCmd.Flags().StringArray("set", nil, "correct a field before export: ROW:FIELD=VALUE (rows start at 1)")
	extractCmd.Flags().Duration("timeout", 0, "extraction request timeout (default http.timeout)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.HTTP.Timeout = timeout
	}

	edits, _ := cmd.Flags().GetStringArray("set")
	parsed := make([]fieldEdit, 0, len(edits))
	for _, e := range edits {
		fe, err := parseEdit(e)
		if err != nil {
			return err
		}
		parsed = append(parsed, fe)
	}

	ctl := newController(cfg)
	ctx := cmd.Context()

	cand, err := selection.CandidateFromPath(args[0])
	if err != nil {
		return err
	}
	if err := ctl.Select(cand); err != nil {
		return errors.New(ctl.Snapshot().ErrorMessage)
	}
	if err := ctl.Submit(ctx); err != nil {
		return errors.New(ctl.Snapshot().ErrorMessage)
	}

	for _, fe := range parsed {
		if err := ctl.UpdateField(fe.Row-1, fe.Field, fe.Value); err != nil {
			return fmt.Errorf("--set %d:%s: %w", fe.Row, fe.Field, err)
		}
	}

	st := ctl.Snapshot()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := formatExtractOutput(st, jsonOutput); err != nil {
		return err
	}

	writeCSV, _ := cmd.Flags().GetBool("csv")
	writeXLSX, _ := cmd.Flags().GetBool("xlsx")
	verify, _ := cmd.Flags().GetBool("verify")
	out := export.DirDownloader{Dir: cfg.Output.Dir}

	if writeCSV {
		if _, err := ctl.ExportCSV(); errors.Is(err, workflow.ErrNoRecords) {
			fmt.Fprintln(os.Stderr, "No records to export.")
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out.Path(export.CSVFileName))
	}

	if writeXLSX || verify {
		data, err := ctl.ExportSpreadsheet(ctx)
		if errors.Is(err, workflow.ErrNoRecords) {
			fmt.Fprintln(os.Stderr, "No records to export.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", export.MsgSpreadsheetFailed, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out.Path(export.SpreadsheetFileName))
		if verify {
			return verifySpreadsheet(data, len(st.Records))
		}
	}
	return nil
}

func formatExtractOutput(st workflow.State, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			File     string                `json:"file"`
			Records  []types.SignageRecord `json:"dados"`
			Metadata *extraction.Metadata  `json:"metadata,omitempty"`
		}{st.SelectedFile.Name, st.Records, st.Metadata})
	}

	review.FormatRecords(os.Stdout, st.Records)
	if st.Metadata.Partial() {
		fmt.Fprintf(os.Stderr, "Warning: chunks %v of %d failed; results may be incomplete\n",
			st.Metadata.FailedChunks, st.Metadata.TotalChunks)
	}
	return nil
}

// verifySpreadsheet reports what the returned workbook holds. The payload
// is the service's to define, so mismatches are warnings.
func verifySpreadsheet(data []byte, want int) error {
	summary, err := export.InspectSpreadsheet(data)
	if err != nil {
		slog.Warn("export.xlsx.unreadable", "err", err)
		fmt.Fprintf(os.Stderr, "Warning: %s could not be opened as a workbook\n", export.SpreadsheetFileName)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Sheet %q: %d rows, columns %s\n",
		summary.Sheet, summary.Rows, strings.Join(summary.Header, ", "))
	if summary.Rows != want {
		slog.Warn("export.xlsx.row_mismatch", "rows", summary.Rows, "records", want)
		fmt.Fprintf(os.Stderr, "Warning: %s has %d rows, expected %d\n", export.SpreadsheetFileName, summary.Rows, want)
	}
	return nil
}

// fieldEdit is one --set correction.
type fieldEdit struct {
	Row   int
	Field types.Field
	Value string
}

// parseEdit parses ROW:FIELD=VALUE. The value may be empty or contain
// further '=' characters.
func parseEdit(s string) (fieldEdit, error) {
	rowPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return fieldEdit{}, fmt.Errorf("invalid --set %q: want ROW:FIELD=VALUE", s)
	}
	fieldPart, value, ok := strings.Cut(rest, "=")
	if !ok {
		return fieldEdit{}, fmt.Errorf("invalid --set %q: want ROW:FIELD=VALUE", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowPart))
	if err != nil || row < 1 {
		return fieldEdit{}, fmt.Errorf("invalid --set %q: row must be a positive number", s)
	}
	field, err := types.ParseField(strings.TrimSpace(fieldPart))
	if err != nil {
		return fieldEdit{}, fmt.Errorf("invalid --set %q: %w", s, err)
	}
	return fieldEdit{Row: row, Field: field, Value: value}, nil
}
