package templates

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestLoad_BothTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, GuardrailsFile), "Only analyze logs.")
	writeFile(t, filepath.Join(dir, EmailTemplateFile), "Subject: {applicationName} alert")

	s := Load(dir)
	if s.Guardrails() != "Only analyze logs." {
		t.Errorf("guardrails: got %q", s.Guardrails())
	}
	if s.EmailTemplate() != "Subject: {applicationName} alert" {
		t.Errorf("email template: got %q", s.EmailTemplate())
	}
}

func TestLoad_MissingFilesDegradeToEmpty(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if s.Guardrails() != "" {
		t.Errorf("missing guardrails: got %q, want empty", s.Guardrails())
	}
	if s.EmailTemplate() != "" {
		t.Errorf("missing email template: got %q, want empty", s.EmailTemplate())
	}
}

func TestLoad_PartiallyMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, EmailTemplateFile), "Dear team")

	s := Load(dir)
	if s.Guardrails() != "" {
		t.Errorf("guardrails: got %q, want empty", s.Guardrails())
	}
	if s.EmailTemplate() != "Dear team" {
		t.Errorf("email template: got %q", s.EmailTemplate())
	}
}

func TestShippedTemplatesLoad(t *testing.T) {
	s := Load(filepath.Join("..", "..", "templates"))
	if s.Guardrails() == "" {
		t.Error("shipped guardrails template should not be empty")
	}
	if s.EmailTemplate() == "" {
		t.Error("shipped email template should not be empty")
	}
}

func TestStore_ConcurrentReads(t *testing.T) {
	s := New("g", "e")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Guardrails() != "g" || s.EmailTemplate() != "e" {
				t.Error("concurrent read returned unexpected content")
			}
		}()
	}
	wg.Wait()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
