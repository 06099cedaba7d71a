package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ricardonunez-io/loganalyser/internal/config"
)

type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(cfg config.AnthropicConfig, maxTokens int64) *AnthropicProvider {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(cfg.APIKey),
		// Retries are owned by the Invoker.
		anthropicoption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func (p *AnthropicProvider) Name() string {
	return string(Anthropic)
}

func (p *AnthropicProvider) Complete(ctx context.Context, systemPreamble, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if systemPreamble != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPreamble},
		}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in anthropic response")
	}

	return sb.String(), nil
}
