// Package llm selects and drives the language-model provider behind the
// analysis pipeline.
package llm

import (
	"context"
	"strings"
)

// Provider turns a prompt into a completion. An empty systemPreamble means no
// system-level instruction is sent.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPreamble, prompt string) (string, error)
}

type Variant string
type variantOptions []Variant

func (v Variant) Match(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), string(v))
}

func (options variantOptions) Find(input string) (Variant, bool) {
	for _, v := range options {
		if v.Match(input) {
			return v, true
		}
	}
	return "", false
}

func (options variantOptions) String() string {
	names := make([]string, len(options))
	for i, v := range options {
		names[i] = "'" + string(v) + "'"
	}
	return strings.Join(names, ", ")
}

const (
	Ollama    Variant = "ollama" // baseline local provider
	OpenAI    Variant = "openai"
	Azure     Variant = "azure"
	Anthropic Variant = "anthropic"
	Google    Variant = "google"
)

var Variants variantOptions = variantOptions{
	Ollama,
	OpenAI,
	Azure,
	Anthropic,
	Google,
}

const DefaultVariant = Ollama
