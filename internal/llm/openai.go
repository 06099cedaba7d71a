package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/ricardonunez-io/loganalyser/internal/config"
)

const completionsSuffix = "/chat/completions"

// OpenAIProvider speaks the chat-completions API. It backs the openai, azure
// and ollama variants; Ollama exposes an OpenAI-compatible endpoint.
type OpenAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int64
}

func NewOpenAI(cfg config.OpenAIConfig, maxTokens int64) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(withTrailingSlash(cfg.BaseURL)),
		option.WithMaxRetries(0),
	}
	if cfg.CompletionsPath != "" {
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: pathRewriter{path: cfg.CompletionsPath, next: http.DefaultTransport},
		}))
	}

	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		name:      string(OpenAI),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func NewAzure(cfg config.AzureConfig, maxTokens int64) *OpenAIProvider {
	client := openai.NewClient(
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		name:      string(Azure),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func NewOllama(cfg config.OllamaConfig, maxTokens int64) *OpenAIProvider {
	client := openai.NewClient(
		// Ollama ignores the key, the SDK requires one.
		option.WithAPIKey("ollama"),
		option.WithBaseURL(withTrailingSlash(cfg.BaseURL)),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		name:      string(Ollama),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, systemPreamble, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPreamble != "" {
		messages = append(messages, openai.SystemMessage(systemPreamble))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.F(p.model),
		Messages:  openai.F(messages),
		MaxTokens: openai.F(p.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", p.name)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("no text content in %s response", p.name)
	}

	return content, nil
}

// pathRewriter sends chat-completions calls to a custom path on the same host.
type pathRewriter struct {
	path string
	next http.RoundTripper
}

func (p pathRewriter) RoundTrip(r *http.Request) (*http.Response, error) {
	if strings.HasSuffix(r.URL.Path, completionsSuffix) {
		r = r.Clone(r.Context())
		r.URL.Path = p.path
		r.URL.RawPath = ""
	}
	return p.next.RoundTrip(r)
}

func withTrailingSlash(u string) string {
	return strings.TrimRight(u, "/") + "/"
}
