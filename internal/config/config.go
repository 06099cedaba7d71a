package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultProvider     = "ollama"
	DefaultCloneTimeout = 2 * time.Minute
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	AI        AIConfig
	Templates TemplatesConfig
	Output    OutputConfig
	Repo      RepoConfig
	LogSource LogSourceConfig
	Slack     SlackConfig
	Server    ServerConfig
	Logging   LoggingConfig
}

type AIConfig struct {
	Provider  string
	Timeout   time.Duration // 0 disables the per-call timeout
	Retries   int
	MaxTokens int64
	Ollama    OllamaConfig
	OpenAI    OpenAIConfig
	Azure     AzureConfig
	Anthropic AnthropicConfig
	Google    GoogleConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	CompletionsPath string
	Model           string
}

type AzureConfig struct {
	APIKey     string
	Endpoint   string
	APIVersion string
	Model      string
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GoogleConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type TemplatesConfig struct {
	Dir string
}

type OutputConfig struct {
	AnalysisDir string
	EmailDir    string
}

type RepoConfig struct {
	CloneDir     string
	CloneTimeout time.Duration
	GitBinary    string
}

type LogSourceConfig struct {
	EnvURLs map[string]string
}

type SlackConfig struct {
	BotToken  string
	ChannelID string
}

func (c SlackConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type LoggingConfig struct {
	Level  string
	Pretty bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", DefaultProvider)
	v.SetDefault("ai.timeout", time.Duration(0))
	v.SetDefault("ai.retries", 0)
	v.SetDefault("ai.max_tokens", 4096)

	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("ollama.model", "llama3.1")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.completions_path", "")
	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("azure.api_key", "")
	v.SetDefault("azure.endpoint", "")
	v.SetDefault("azure.api_version", "2024-06-01")
	v.SetDefault("azure.model", "gpt-4o")

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-opus-4-6")

	v.SetDefault("google.api_key", "")
	v.SetDefault("google.base_url", "")
	v.SetDefault("google.model", "gemini-2.0-flash")

	v.SetDefault("templates.dir", "templates")

	v.SetDefault("output.analysis_dir", "output/log_analysis_output")
	v.SetDefault("output.email_dir", "output/email")

	v.SetDefault("repo.clone_dir", "output/cloned-repos")
	v.SetDefault("repo.clone_timeout", DefaultCloneTimeout)
	v.SetDefault("repo.git_binary", "git")

	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.channel_id", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. Keys map to environment
// variables by upper-casing and replacing dots, e.g. ai.provider -> AI_PROVIDER.
// An empty configFile looks for ./config.yaml and tolerates its absence.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY", "OPEN_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("failed to bind openai api key: %w", err)
	}
	if err := v.BindEnv("google.api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("failed to bind google api key: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := Config{
		AI: AIConfig{
			Provider:  v.GetString("ai.provider"),
			Timeout:   v.GetDuration("ai.timeout"),
			Retries:   v.GetInt("ai.retries"),
			MaxTokens: v.GetInt64("ai.max_tokens"),
			Ollama: OllamaConfig{
				BaseURL: v.GetString("ollama.base_url"),
				Model:   v.GetString("ollama.model"),
			},
			OpenAI: OpenAIConfig{
				APIKey:          strings.TrimSpace(v.GetString("openai.api_key")),
				BaseURL:         v.GetString("openai.base_url"),
				CompletionsPath: v.GetString("openai.completions_path"),
				Model:           v.GetString("openai.model"),
			},
			Azure: AzureConfig{
				APIKey:     strings.TrimSpace(v.GetString("azure.api_key")),
				Endpoint:   v.GetString("azure.endpoint"),
				APIVersion: v.GetString("azure.api_version"),
				Model:      v.GetString("azure.model"),
			},
			Anthropic: AnthropicConfig{
				APIKey:  strings.TrimSpace(v.GetString("anthropic.api_key")),
				BaseURL: v.GetString("anthropic.base_url"),
				Model:   v.GetString("anthropic.model"),
			},
			Google: GoogleConfig{
				APIKey:  strings.TrimSpace(v.GetString("google.api_key")),
				BaseURL: v.GetString("google.base_url"),
				Model:   v.GetString("google.model"),
			},
		},
		Templates: TemplatesConfig{
			Dir: v.GetString("templates.dir"),
		},
		Output: OutputConfig{
			AnalysisDir: v.GetString("output.analysis_dir"),
			EmailDir:    v.GetString("output.email_dir"),
		},
		Repo: RepoConfig{
			CloneDir:     v.GetString("repo.clone_dir"),
			CloneTimeout: v.GetDuration("repo.clone_timeout"),
			GitBinary:    v.GetString("repo.git_binary"),
		},
		LogSource: LogSourceConfig{
			EnvURLs: envURLs(v),
		},
		Slack: SlackConfig{
			BotToken:  v.GetString("slack.bot_token"),
			ChannelID: v.GetString("slack.channel_id"),
		},
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Pretty: v.GetBool("logging.pretty"),
		},
	}

	if cfg.Repo.CloneTimeout <= 0 {
		log.Warn().Dur("value", cfg.Repo.CloneTimeout).Msg("Invalid repo.clone_timeout, defaulting to 2m")
		cfg.Repo.CloneTimeout = DefaultCloneTimeout
	}
	if cfg.AI.Retries < 0 {
		log.Warn().Int("value", cfg.AI.Retries).Msg("Negative ai.retries, defaulting to 0")
		cfg.AI.Retries = 0
	}

	return cfg, nil
}

// envURLs reads log.env_urls either as a YAML map or, from the environment,
// as a comma-separated list of NAME=URL pairs.
func envURLs(v *viper.Viper) map[string]string {
	if m := v.GetStringMapString("log.env_urls"); len(m) > 0 {
		// viper lower-cases map keys; environment names are matched case-insensitively.
		return m
	}
	return parseEnvURLs(v.GetString("log.env_urls"))
}

func parseEnvURLs(raw string) map[string]string {
	m := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			continue
		}
		m[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(url)
	}
	return m
}
