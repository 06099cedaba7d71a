package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ricardonunez-io/loganalyser/internal/digest"
	"github.com/spf13/cobra"
)

var digestFlags struct {
	file        string
	level       string
	maxPatterns int
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Group log lines into recurring patterns without calling a model",
	Args:  cobra.NoArgs,
	RunE:  runDigest,
}

func init() {
	f := digestCmd.Flags()
	f.StringVarP(&digestFlags.file, "file", "f", "-", "Log file to digest (- for stdin)")
	f.StringVar(&digestFlags.level, "level", "", "Minimum level to keep (All for every line)")
	f.IntVar(&digestFlags.maxPatterns, "max", digest.DefaultMaxPatterns, "Maximum number of patterns to print")
}

func runDigest(cmd *cobra.Command, _ []string) error {
	var (
		data []byte
		err  error
	)
	if digestFlags.file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(digestFlags.file)
	}
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}

	summary, err := digest.Summarize(cmd.Context(), string(data), digest.Options{
		MinLevel:    digestFlags.level,
		MaxPatterns: digestFlags.maxPatterns,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
