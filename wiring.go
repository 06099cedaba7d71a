package main

import (
	"os"
	"strings"
	"time"

	"github.com/ricardonunez-io/loganalyser/internal/alert"
	"github.com/ricardonunez-io/loganalyser/internal/analyzer"
	"github.com/ricardonunez-io/loganalyser/internal/config"
	"github.com/ricardonunez-io/loganalyser/internal/ingestor"
	"github.com/ricardonunez-io/loganalyser/internal/llm"
	"github.com/ricardonunez-io/loganalyser/internal/repo"
	"github.com/ricardonunez-io/loganalyser/internal/store"
	"github.com/ricardonunez-io/loganalyser/internal/templates"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const writeTimeoutSlack = 30 * time.Second

// writeTimeout stretches server.write_timeout to cover one analysis pass: a
// clone, then the analysis and alert model calls. When model calls are
// unbounded the write timeout is disabled, so a slow pass still gets its
// response written.
func writeTimeout(cfg config.Config) time.Duration {
	configured := cfg.Server.WriteTimeout
	if configured <= 0 {
		return 0
	}
	call := llm.CallBudget(cfg.AI.Timeout, cfg.AI.Retries)
	if call == 0 {
		return 0
	}
	return max(configured, cfg.Repo.CloneTimeout+2*call+writeTimeoutSlack)
}

func setupLogging(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("value", cfg.Level).Msg("Invalid logging.level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// loadPipeline reads configuration and builds the analyzer. Any error here is
// a startup failure.
func loadPipeline() (config.Config, *analyzer.Analyzer, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	setupLogging(cfg.Logging)

	a, err := buildPipeline(cfg, llm.DefaultFactories(cfg.AI))
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, a, nil
}

func buildPipeline(cfg config.Config, factories map[llm.Variant]llm.Factory) (*analyzer.Analyzer, error) {
	provider, err := llm.Select(cfg.AI.Provider, factories)
	if err != nil {
		return nil, err
	}
	invoker := llm.NewInvoker(provider,
		llm.WithTimeout(cfg.AI.Timeout),
		llm.WithRetries(cfg.AI.Retries),
	)

	repoOpts := []repo.Option{repo.WithTimeout(cfg.Repo.CloneTimeout)}
	if cfg.Repo.GitBinary != "" {
		repoOpts = append(repoOpts, repo.WithGitBinary(cfg.Repo.GitBinary))
	}
	repos, err := repo.NewResolver(cfg.Repo.CloneDir, repoOpts...)
	if err != nil {
		return nil, err
	}

	dispatchers := alert.Multi{alert.NewEmailDispatcher(cfg.Output.EmailDir)}
	if cfg.Slack.Enabled() {
		dispatchers = append(dispatchers, alert.NewSlackDispatcher(cfg.Slack))
	} else {
		log.Info().Msg("SLACK_BOT_TOKEN or SLACK_CHANNEL_ID not set, Slack alerts disabled")
	}

	log.Info().
		Str("provider", invoker.ProviderName()).
		Dur("modelTimeout", cfg.AI.Timeout).
		Int("modelRetries", cfg.AI.Retries).
		Str("analysisDir", cfg.Output.AnalysisDir).
		Str("emailDir", cfg.Output.EmailDir).
		Str("cloneDir", cfg.Repo.CloneDir).
		Msg("Configuration loaded")

	return analyzer.New(
		ingestor.NewResolver(ingestor.NewStubFetcher(cfg.LogSource.EnvURLs)),
		repos,
		invoker,
		templates.Load(cfg.Templates.Dir),
		store.NewAnalysisStore(cfg.Output.AnalysisDir),
		dispatchers,
	), nil
}
