// README: Persona prompt source. The instruction can live in a markdown
// file so it is editable without a rebuild; missing or empty files fall
// back to the built-in text.
package responder

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const defaultPersona = "You are a helpful assistant for a breast pump rental company."

type promptSource struct {
	path   string
	reload bool

	mu     sync.Mutex
	cached string
}

// persona returns the instruction text. With reload set the file is
// re-read on every call; otherwise the first successful read is cached.
func (p *promptSource) persona(log zerolog.Logger) string {
	if p == nil || p.path == "" {
		return defaultPersona
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != "" && !p.reload {
		return p.cached
	}
	b, err := os.ReadFile(p.path)
	if err != nil {
		log.Warn().Err(err).Str("path", p.path).Msg("prompt file read failed")
		if p.cached != "" {
			return p.cached
		}
		return defaultPersona
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return defaultPersona
	}
	p.cached = s
	return s
}
