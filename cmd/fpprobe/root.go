package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fpprobe.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fpprobe",
		Short: "Sample a browser fingerprinting page with headless Chrome",
		Long: `fpprobe loads a browser fingerprinting page in headless Chrome several times
in a row. Each iteration saves a full-page screenshot and a PDF, asks the
page's verification service for a trust score and writes the result to
output_<i>.json. Progress is appended to scrape_log.txt.

Runs are also recorded in a local history database that can be inspected
with 'fpprobe history'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
