package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marksheet",
	Short: "Extract structured records from scanned marksheets",
	Long: `marksheet runs a scanned marksheet (PDF, JPG or PNG) through OCR and an
LLM extraction pipeline and prints the structured record.

Configuration is read from MARKSHEET_* environment variables or a .env file,
the same way as the HTTP server.`,
	Version:      gitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(versionCmd)
}
