// README: Per-turn orchestrator. Classifies the latest utterance, runs
// the dialogue machine, and falls through to knowledge-base retrieval
// and the generative responder when no flow claims the turn.
package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"tlx/internal/modules/dialogue"
	"tlx/internal/modules/intent"
	"tlx/internal/modules/kb"
	"tlx/internal/modules/language"
	"tlx/internal/modules/responder"
	"tlx/internal/types"
)

type Assistant struct {
	detector  *language.Detector
	machine   *dialogue.Machine
	kb        *kb.Service
	responder *responder.Service
	log       zerolog.Logger
}

func NewAssistant(
	detector *language.Detector,
	machine *dialogue.Machine,
	kbSvc *kb.Service,
	resp *responder.Service,
	log zerolog.Logger,
) *Assistant {
	return &Assistant{
		detector:  detector,
		machine:   machine,
		kb:        kbSvc,
		responder: resp,
		log:       log,
	}
}

type ChatInput struct {
	SessionID   types.ID
	Messages    []responder.Message
	LangHint    string
	Attachments []string
}

type ChatOutput struct {
	Reply       string
	SessionID   types.ID
	Lang        language.Code
	Intent      string
	Attachments []string
	Confirm     bool
	Summary     *dialogue.Details
	Err         string
}

// Chat runs one conversational turn end to end.
func (a *Assistant) Chat(ctx context.Context, in ChatInput) ChatOutput {
	text := lastUserMessage(in.Messages)

	lang, ok := language.Normalize(in.LangHint)
	if !ok {
		lang = a.detector.Detect(ctx, text)
	}

	res, err := a.machine.Turn(ctx, dialogue.TurnInput{
		SessionID:   in.SessionID,
		Utterance:   text,
		Lang:        lang,
		Intent:      intent.Classify(text),
		Polarity:    intent.Polarize(text),
		Attachments: in.Attachments,
	})
	if err != nil {
		a.log.Error().Err(err).Str("session_id", string(in.SessionID)).Msg("dialogue turn failed")
		return ChatOutput{
			Reply:     responder.Apology,
			SessionID: in.SessionID,
			Lang:      lang,
			Err:       "session store unavailable",
		}
	}
	if res.Handled {
		return ChatOutput{
			Reply:       res.Reply,
			SessionID:   in.SessionID,
			Lang:        lang,
			Intent:      string(res.Intent),
			Attachments: res.Attachments,
			Confirm:     res.Confirm,
			Summary:     res.Summary,
		}
	}

	// Open Q&A: close question matches answer directly, then any
	// retrieved answer, then the generative fallback.
	if text != "" {
		if ans, hit := a.kb.QuickAnswer(text); hit {
			return ChatOutput{Reply: ans, SessionID: in.SessionID, Lang: lang}
		}
	}
	ref := a.kb.Retrieve(ctx, text, 3)
	if len(ref) > 0 && ref[0].Answer != "" {
		return ChatOutput{Reply: ref[0].Answer, SessionID: in.SessionID, Lang: lang}
	}
	return ChatOutput{
		Reply:     a.responder.Reply(ctx, lang, in.Messages, ref),
		SessionID: in.SessionID,
		Lang:      lang,
	}
}

func lastUserMessage(msgs []responder.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return ""
}
