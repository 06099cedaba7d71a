package llm

import (
	"context"
	"fmt"

	"github.com/ricardonunez-io/loganalyser/internal/config"
	"google.golang.org/genai"
)

type GoogleProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGoogle(ctx context.Context, cfg config.GoogleConfig, maxTokens int64) (*GoogleProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: withTrailingSlash(cfg.BaseURL)}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GoogleProvider{
		client:    client,
		model:     cfg.Model,
		maxTokens: int32(min(maxTokens, int64(1<<31-1))),
	}, nil
}

func (p *GoogleProvider) Name() string {
	return string(Google)
}

func (p *GoogleProvider) Complete(ctx context.Context, systemPreamble, prompt string) (string, error) {
	genCfg := &genai.GenerateContentConfig{MaxOutputTokens: p.maxTokens}
	if systemPreamble != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPreamble, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("google API error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in google response")
	}
	return text, nil
}
