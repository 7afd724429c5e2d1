// README: Gemini-backed provider, the alternative chat backend.
package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() {
	g.client.Close()
}

func (g *Gemini) Complete(ctx context.Context, system string, history []Message) (string, error) {
	// Context is bound by prepending the instructions to a flattened
	// transcript rather than using SystemInstruction.
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n")
	for _, m := range history {
		if m.Role == "assistant" {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(b.String()))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response candidates from gemini")
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return out.String(), nil
}
