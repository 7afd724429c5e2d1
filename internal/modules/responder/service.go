// README: Generative fallback for open questions. Builds the company
// persona prompt with optional knowledge-base context and fails closed
// with a static apology on any provider error.
package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tlx/internal/modules/kb"
	"tlx/internal/modules/language"
)

// Apology is the safe reply returned when the provider fails.
const Apology = "Sorry, I encountered an error. Please try again."

type Service struct {
	provider Provider
	prompt   *promptSource
	log      zerolog.Logger
}

func NewService(provider Provider, log zerolog.Logger) *Service {
	return &Service{provider: provider, log: log}
}

// UsePromptFile serves the persona instruction from path instead of the
// built-in text. With reload the file is re-read on every request.
func (s *Service) UsePromptFile(path string, reload bool) {
	s.prompt = &promptSource{path: path, reload: reload}
}

// Reply answers an open question from the conversation history, grounded
// on up to two knowledge-base pairs. It always returns a usable string.
func (s *Service) Reply(ctx context.Context, lang language.Code, history []Message, ref []kb.QA) string {
	if s.provider == nil {
		return Apology
	}
	system := fmt.Sprintf("%s Reply ONLY in %s. Be concise and friendly.",
		s.prompt.persona(s.log), langName(lang))
	if len(ref) > 0 {
		var b strings.Builder
		for i, qa := range ref {
			if i == 2 {
				break
			}
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
		}
		system += "\n\nReference information:\n" + b.String()
	}

	out, err := s.provider.Complete(ctx, system, history)
	if err != nil {
		s.log.Warn().Err(err).Msg("completion failed, returning apology")
		return Apology
	}
	if strings.TrimSpace(out) == "" {
		return Apology
	}
	return out
}

func langName(code language.Code) string {
	switch code {
	case language.EN:
		return "English"
	case language.AR:
		return "Arabic"
	default:
		return "French"
	}
}
