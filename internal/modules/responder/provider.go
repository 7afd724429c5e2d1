// README: Generative responder contracts. Providers are opaque
// text-completion backends; capability interfaces stay small so the
// wiring can mix and match what each backend supports.
package responder

import "context"

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider completes a conversation under system instructions.
type Provider interface {
	Complete(ctx context.Context, system string, history []Message) (string, error)
}

// Translator rewrites text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}
