package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/signage-review/internal/extraction"
)

const defaultHealthDelay = 2 * time.Second

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the extraction service is up",
	Long: `Health calls the service health endpoint and reports its status and
whether its model credentials are configured. With --wait it polls until
the service reports ok or the attempts run out.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().Uint("wait", 0, "poll up to this many attempts until the service is ok")
	healthCmd.Flags().Duration("delay", 0, "delay between polls (default 2s)")
	healthCmd.Flags().Bool("json", false, "print the health response as JSON")

	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	attempts, _ := cmd.Flags().GetUint("wait")
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultHealthDelay
	}

	client := extraction.NewClient(cfg.Server, cfg.HTTP, nil)
	var h *extraction.Health
	if attempts > 0 {
		h, err = client.WaitHealthy(cmd.Context(), attempts, delay)
	} else {
		h, err = client.Health(cmd.Context())
	}
	if h == nil && err != nil {
		return fmt.Errorf("%s: %w", extraction.MsgNetworkFailed, err)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(h); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(os.Stdout, "Server:     %s\n", cfg.Server.URL)
		fmt.Fprintf(os.Stdout, "Status:     %s\n", h.Status)
		if h.Message != "" {
			fmt.Fprintf(os.Stdout, "Message:    %s\n", h.Message)
		}
		fmt.Fprintf(os.Stdout, "Model keys: %t\n", h.AnthropicConfigured)
	}

	if err != nil {
		return err
	}
	if !h.OK() {
		return fmt.Errorf("service status %q", h.Status)
	}
	return nil
}
