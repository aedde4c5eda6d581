package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signage-review/internal/export"
	"github.com/pdiddy/signage-review/internal/records"
)

var exportCmd = &cobra.Command{
	Use:   "export <records.yaml|records.json>",
	Short: "Re-export saved records as CSV or XLSX",
	Long: `Export reads records saved earlier (the YAML printed by the review dump
command, or a JSON extraction response with a dados list) and writes
sinalizacao.csv and, with --xlsx, sinalizacao.xlsx to the output
directory. No PDF is uploaded; the XLSX export still calls the service.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().Bool("csv", true, "write sinalizacao.csv")
	exportCmd.Flags().Bool("xlsx", false, "write sinalizacao.xlsx")
	exportCmd.Flags().Bool("verify", false, "open the returned workbook and compare its rows with the records (implies --xlsx)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	recs, err := records.Load(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "No records to export.")
		return nil
	}

	out := export.DirDownloader{Dir: cfg.Output.Dir}

	if writeCSV, _ := cmd.Flags().GetBool("csv"); writeCSV {
		data := export.CSV(recs, export.CSVOptions{EscapeQuotes: cfg.CSV.EscapeQuotes})
		if err := out.Download(export.CSVFileName, data); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d records)\n", out.Path(export.CSVFileName), len(recs))
	}

	writeXLSX, _ := cmd.Flags().GetBool("xlsx")
	verify, _ := cmd.Flags().GetBool("verify")
	if !writeXLSX && !verify {
		return nil
	}

	client := export.NewSpreadsheetClient(cfg.Server, cfg.HTTP, nil)
	data, err := client.Render(cmd.Context(), recs)
	if err != nil {
		return err
	}
	if err := out.Download(export.SpreadsheetFileName, data); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", out.Path(export.SpreadsheetFileName))
	if verify {
		return verifySpreadsheet(data, len(recs))
	}
	return nil
}
