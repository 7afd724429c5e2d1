// README: OpenAI-backed provider. Beyond chat completion it exposes
// embeddings for the knowledge base, language identification for the
// detector, and translation for non-French knowledge-base answers.
package responder

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAI struct {
	client     *openai.Client
	chatModel  string
	embedModel string
}

func NewOpenAI(apiKey, chatModel, embedModel string) *OpenAI {
	return &OpenAI{
		client:     openai.NewClient(apiKey),
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

func (o *OpenAI) Complete(ctx context.Context, system string, history []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.chatModel,
		Messages:    msgs,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no completion choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed implements the knowledge base's Embedder.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil, nil
	}
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai: empty embedding response")
	}
	out := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		out[i] = float64(v)
	}
	return out, nil
}

// DetectLanguage implements the language detector's Refiner.
func (o *OpenAI) DetectLanguage(ctx context.Context, text string) (string, error) {
	out, err := o.Complete(ctx,
		"Identify the language of the user message. Answer with exactly one code: fr, en or ar.",
		[]Message{{Role: "user", Content: text}})
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

func (o *OpenAI) Translate(ctx context.Context, text, targetLang string) (string, error) {
	out, err := o.Complete(ctx,
		"Translate the given text to "+targetLang+". Keep formatting. Do not add extra text.",
		[]Message{{Role: "user", Content: text}})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return text, nil
	}
	return out, nil
}
