package templates

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	GuardrailsFile    = "guardrails.st"
	EmailTemplateFile = "email-alert.st"
)

// Store holds the prompt templates loaded at startup. It is read-only after
// Load returns.
type Store struct {
	guardrails    string
	emailTemplate string
}

// Load reads both templates from dir. A missing or unreadable file degrades
// to an empty template.
func Load(dir string) *Store {
	return &Store{
		guardrails:    loadTemplate(filepath.Join(dir, GuardrailsFile)),
		emailTemplate: loadTemplate(filepath.Join(dir, EmailTemplateFile)),
	}
}

// New builds a Store from in-memory content.
func New(guardrails, emailTemplate string) *Store {
	return &Store{guardrails: guardrails, emailTemplate: emailTemplate}
}

func (s *Store) Guardrails() string {
	return s.guardrails
}

func (s *Store) EmailTemplate() string {
	return s.emailTemplate
}

func loadTemplate(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not load template, using empty content")
		return ""
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Template loaded")
	return string(data)
}
