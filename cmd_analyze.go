package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var analyzeFlags struct {
	file        string
	environment string
	query       string
	repoLink    string
	logLevel    string
	days        int
	application string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one batch of logs and print the error table",
	Long: `Analyze logs read from a file, stdin, or an environment and print the
model's error table to stdout.

Usage:
  loganalyser analyze -f app.log --query "why does checkout fail"
  cat app.log | loganalyser analyze -f -
  loganalyser analyze --env PRD --level ERROR --days 3 --app billing`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	registerAnalyzeFlags(analyzeCmd)
}

func registerAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&analyzeFlags.file, "file", "f", "", "Log file to analyze (- for stdin)")
	f.StringVar(&analyzeFlags.environment, "env", "", "Environment to fetch logs from instead of --file")
	f.StringVarP(&analyzeFlags.query, "query", "q", "", "Analysis question")
	f.StringVar(&analyzeFlags.repoLink, "repo", "", "Git repository URL or description for code context")
	f.StringVar(&analyzeFlags.logLevel, "level", "", "Log level to focus on (All for no restriction)")
	f.IntVar(&analyzeFlags.days, "days", 0, "Look-back window in days")
	f.StringVar(&analyzeFlags.application, "app", "", "Application name to scope to (All for no restriction)")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	req, err := analyzeRequest(cmd, cmd.InOrStdin())
	if err != nil {
		return err
	}

	_, a, err := loadPipeline()
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := a.Analyze(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outcome.Result.Content)
	if outcome.ArtifactPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", outcome.ArtifactPath)
	}
	return nil
}

func analyzeRequest(cmd *cobra.Command, stdin io.Reader) (model.AnalysisRequest, error) {
	req := model.AnalysisRequest{
		Query:           analyzeFlags.query,
		RepoLink:        analyzeFlags.repoLink,
		LogLevel:        analyzeFlags.logLevel,
		ApplicationName: analyzeFlags.application,
		Environment:     analyzeFlags.environment,
	}
	if cmd.Flags().Changed("days") {
		days := analyzeFlags.days
		req.Days = &days
	}

	switch {
	case analyzeFlags.environment != "":
	case analyzeFlags.file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return req, fmt.Errorf("failed to read stdin: %w", err)
		}
		req.RawLogs = string(data)
	case analyzeFlags.file != "":
		data, err := os.ReadFile(analyzeFlags.file)
		if err != nil {
			return req, fmt.Errorf("failed to read %s: %w", analyzeFlags.file, err)
		}
		req.RawLogs = string(data)
	default:
		return req, fmt.Errorf("one of --file or --env is required")
	}
	return req, nil
}
