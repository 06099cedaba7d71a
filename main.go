package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "loganalyser",
	Short: "AI-assisted root-cause analysis for application logs",
	Long: "loganalyser sends raw or environment-sourced logs to a language model,\n" +
		"stores the resulting error table and raises an alert when errors are found.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (default: ./config.yaml when present)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
