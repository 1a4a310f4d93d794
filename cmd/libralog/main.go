package main

import (
	"os"

	"github.com/scaleworks/libralog/internal/ui"
	"github.com/spf13/cobra"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "libralog <command>",
	Short: "Scale event log monitor and API server",
	Long: `libralog watches an append-only log of weight-scale sensor events,
detects newly appended records, and serves per-device latest state over
HTTP, SSE, and NATS.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(tailCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
