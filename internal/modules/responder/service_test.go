// README: Responder service tests with a stub provider.
package responder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tlx/internal/modules/kb"
	"tlx/internal/modules/language"
)

type stubProvider struct {
	out    string
	err    error
	system string
}

func (p *stubProvider) Complete(_ context.Context, system string, _ []Message) (string, error) {
	p.system = system
	return p.out, p.err
}

func TestReplyBuildsPrompt(t *testing.T) {
	p := &stubProvider{out: "Bonjour !"}
	s := NewService(p, zerolog.Nop())

	ref := []kb.QA{
		{Question: "Q1", Answer: "A1"},
		{Question: "Q2", Answer: "A2"},
		{Question: "Q3", Answer: "A3"},
	}
	out := s.Reply(context.Background(), language.FR, []Message{{Role: "user", Content: "tarifs ?"}}, ref)
	if out != "Bonjour !" {
		t.Fatalf("Reply = %q", out)
	}
	if !strings.Contains(p.system, "ONLY in French") {
		t.Errorf("system prompt missing language: %q", p.system)
	}
	if !strings.Contains(p.system, "Q: Q1") || !strings.Contains(p.system, "Q: Q2") {
		t.Errorf("system prompt missing reference pairs: %q", p.system)
	}
	if strings.Contains(p.system, "Q3") {
		t.Errorf("reference context must cap at two pairs: %q", p.system)
	}
}

func TestReplyUsesPromptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.md")
	if err := os.WriteFile(path, []byte("You are the rental support bot.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &stubProvider{out: "ok"}
	s := NewService(p, zerolog.Nop())
	s.UsePromptFile(path, false)

	s.Reply(context.Background(), language.EN, nil, nil)
	if !strings.HasPrefix(p.system, "You are the rental support bot.") {
		t.Errorf("system prompt missing file persona: %q", p.system)
	}
	if !strings.Contains(p.system, "ONLY in English") {
		t.Errorf("language pin must survive the file persona: %q", p.system)
	}

	// Without reload the first read is cached.
	if err := os.WriteFile(path, []byte("Changed."), 0o644); err != nil {
		t.Fatal(err)
	}
	s.Reply(context.Background(), language.EN, nil, nil)
	if !strings.HasPrefix(p.system, "You are the rental support bot.") {
		t.Errorf("cached persona expected, got %q", p.system)
	}

	// With reload every request sees the current file.
	s.UsePromptFile(path, true)
	s.Reply(context.Background(), language.EN, nil, nil)
	if !strings.HasPrefix(p.system, "Changed.") {
		t.Errorf("reloaded persona expected, got %q", p.system)
	}
}

func TestReplyPromptFileMissingFallsBack(t *testing.T) {
	p := &stubProvider{out: "ok"}
	s := NewService(p, zerolog.Nop())
	s.UsePromptFile(filepath.Join(t.TempDir(), "absent.md"), false)

	s.Reply(context.Background(), language.FR, nil, nil)
	if !strings.HasPrefix(p.system, "You are a helpful assistant for a breast pump rental company.") {
		t.Errorf("built-in persona expected, got %q", p.system)
	}
}

func TestReplyFailsClosed(t *testing.T) {
	s := NewService(&stubProvider{err: errors.New("timeout")}, zerolog.Nop())
	if out := s.Reply(context.Background(), language.EN, nil, nil); out != Apology {
		t.Fatalf("Reply on error = %q, want apology", out)
	}

	s = NewService(&stubProvider{out: "   "}, zerolog.Nop())
	if out := s.Reply(context.Background(), language.AR, nil, nil); out != Apology {
		t.Fatalf("Reply on blank output = %q, want apology", out)
	}

	s = NewService(nil, zerolog.Nop())
	if out := s.Reply(context.Background(), language.FR, nil, nil); out != Apology {
		t.Fatalf("Reply without provider = %q, want apology", out)
	}
}
