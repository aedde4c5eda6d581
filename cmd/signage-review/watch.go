package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signage-review/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Process PDFs dropped into a folder",
	Long: `Watch treats a directory as a drop target. Each file copied into it is
validated, sent for extraction once it stops changing, and exported as
sinalizacao.csv (and sinalizacao.xlsx with --xlsx) into the output
directory. Files are processed one at a time; each replaces the previous
results. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("settle", 0, "how long a file must stay unchanged before processing (default watch.settle)")
	watchCmd.Flags().Bool("xlsx", false, "also write sinalizacao.xlsx")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Watch.Dir = args[0]
	if settle, _ := cmd.Flags().GetDuration("settle"); settle > 0 {
		cfg.Watch.Settle = settle
	}
	if xlsx, _ := cmd.Flags().GetBool("xlsx"); xlsx {
		cfg.Watch.Spreadsheet = true
	}

	p := &watch.Pipeline{
		Controller:  newController(cfg),
		Spreadsheet: cfg.Watch.Spreadsheet,
		Out:         os.Stdout,
	}
	fmt.Fprintf(os.Stderr, "Watching %s (exports to %s)\n", cfg.Watch.Dir, cfg.Output.Dir)
	return watch.Run(cmd.Context(), cfg.Watch, p, nil)
}
