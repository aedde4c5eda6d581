package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signage-review/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review [file.pdf]",
	Short: "Review and correct extracted records interactively",
	Long: `Review starts a command session over stdin. Open or drop a PDF, submit
it for extraction, list and edit the rows, then export sinalizacao.csv or
sinalizacao.xlsx. Type help inside the session for the command list.

A PDF given as argument is opened before the first prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().Bool("no-prompt", false, "do not print a prompt (for scripted input)")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")

	s := review.NewSession(newController(cfg), os.Stdout, nil)
	s.Prompt = !noPrompt

	ctx := cmd.Context()
	if len(args) == 1 {
		if _, err := s.Exec(ctx, "open "+args[0]); err != nil {
			return err
		}
	}
	return s.Run(ctx, os.Stdin)
}
