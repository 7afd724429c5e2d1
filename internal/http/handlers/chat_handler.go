// README: Chat endpoint handler. Parses the multipart turn payload,
// persists uploads, and delegates to the assistant orchestrator.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tlx/internal/modules/dialogue"
	"tlx/internal/modules/language"
	"tlx/internal/modules/responder"
	"tlx/internal/modules/uploads"
	"tlx/internal/service"
	"tlx/internal/types"
)

// errInvalidFormat is returned verbatim (always in the default
// language) when the message batch cannot be parsed.
const errInvalidFormat = "[ERROR] Invalid format"

type ChatHandler struct {
	assistant *service.Assistant
	uploads   uploads.Store
	log       zerolog.Logger
}

func NewChatHandler(assistant *service.Assistant, up uploads.Store, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{assistant: assistant, uploads: up, log: log}
}

type chatResponse struct {
	Reply       string            `json:"reply"`
	SessionID   string            `json:"session_id"`
	Lang        string            `json:"lang"`
	Intent      string            `json:"intent,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	Confirm     bool              `json:"confirm,omitempty"`
	Summary     *dialogue.Details `json:"summary,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Chat handles POST /chat. The body is multipart form data: a "messages"
// JSON array, optional "session_id" and "language" fields, and optional
// "prescription_file" / "insurance_file" uploads.
func (h *ChatHandler) Chat(c *gin.Context) {
	var msgs []responder.Message
	if err := json.Unmarshal([]byte(c.PostForm("messages")), &msgs); err != nil || len(msgs) == 0 {
		// Malformed batches never touch the supplied session's state.
		writeJSON(c, http.StatusOK, chatResponse{
			Reply:     errInvalidFormat,
			SessionID: uuid.NewString(),
			Lang:      string(language.Default),
		})
		return
	}

	sessionID := strings.TrimSpace(c.PostForm("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	out := h.assistant.Chat(c.Request.Context(), service.ChatInput{
		SessionID:   types.ID(sessionID),
		Messages:    msgs,
		LangHint:    c.PostForm("language"),
		Attachments: h.saveUploads(c, types.ID(sessionID)),
	})

	writeJSON(c, http.StatusOK, chatResponse{
		Reply:       out.Reply,
		SessionID:   string(out.SessionID),
		Lang:        string(out.Lang),
		Intent:      out.Intent,
		Attachments: out.Attachments,
		Confirm:     out.Confirm,
		Summary:     out.Summary,
		Error:       out.Err,
	})
}

// saveUploads persists the two document uploads. Any storage failure
// resets the whole list for this turn; the missing documents are
// re-prompted as an unfilled slot later.
func (h *ChatHandler) saveUploads(c *gin.Context, sid types.ID) []string {
	var urls []string
	for _, doc := range []struct{ field, tag string }{
		{"prescription_file", "prescription"},
		{"insurance_file", "insurance"},
	} {
		fh, err := c.FormFile(doc.field)
		if err != nil {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			h.log.Warn().Err(err).Str("field", doc.field).Msg("attachment open failed")
			return nil
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.log.Warn().Err(err).Str("field", doc.field).Msg("attachment read failed")
			return nil
		}
		url, err := h.uploads.Save(sid, doc.tag, data, fh.Filename)
		if err != nil {
			h.log.Warn().Err(err).Str("field", doc.field).Msg("attachment save failed")
			return nil
		}
		urls = append(urls, url)
	}
	return urls
}
