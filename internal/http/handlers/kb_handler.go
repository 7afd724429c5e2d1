// README: Knowledge-base endpoints: direct Q&A lookups and hot reload
// of the CSV corpus.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tlx/internal/modules/kb"
	"tlx/internal/modules/language"
	"tlx/internal/modules/responder"
)

type KBHandler struct {
	kb         *kb.Service
	detector   *language.Detector
	responder  *responder.Service
	translator responder.Translator // optional
	log        zerolog.Logger
}

func NewKBHandler(
	kbSvc *kb.Service,
	detector *language.Detector,
	resp *responder.Service,
	translator responder.Translator,
	log zerolog.Logger,
) *KBHandler {
	return &KBHandler{
		kb:         kbSvc,
		detector:   detector,
		responder:  resp,
		translator: translator,
		log:        log,
	}
}

type askResponse struct {
	Answer          string `json:"answer"`
	MatchedQuestion string `json:"matched_question,omitempty"`
	Lang            string `json:"lang"`
	Found           bool   `json:"found"`
	UsedFallback    bool   `json:"used_fallback"`
}

// Ask handles POST /kb/ask. Form fields: q (required), fallback
// ("true" enables the generative fallback) and language.
func (h *KBHandler) Ask(c *gin.Context) {
	q := strings.TrimSpace(c.PostForm("q"))
	if q == "" {
		writeError(c, http.StatusBadRequest, "q is required")
		return
	}

	lang, ok := language.Normalize(c.PostForm("language"))
	if !ok {
		lang = h.detector.Detect(c.Request.Context(), q)
	}

	ref := h.kb.Retrieve(c.Request.Context(), q, 3)
	if len(ref) > 0 && ref[0].Answer != "" {
		answer := ref[0].Answer
		// The corpus is French; translate when the caller asked for
		// another language. A failed translation keeps the original.
		if lang != language.FR && h.translator != nil {
			if t, err := h.translator.Translate(c.Request.Context(), answer, string(lang)); err == nil && t != "" {
				answer = t
			} else if err != nil {
				h.log.Warn().Err(err).Msg("answer translation failed")
			}
		}
		writeJSON(c, http.StatusOK, askResponse{
			Answer:          answer,
			MatchedQuestion: ref[0].Question,
			Lang:            string(lang),
			Found:           true,
		})
		return
	}

	if c.PostForm("fallback") != "true" {
		writeJSON(c, http.StatusOK, askResponse{Lang: string(lang)})
		return
	}

	reply := h.responder.Reply(c.Request.Context(), lang, []responder.Message{{Role: "user", Content: q}}, nil)
	writeJSON(c, http.StatusOK, askResponse{
		Answer:       reply,
		Lang:         string(lang),
		Found:        true,
		UsedFallback: true,
	})
}

// Reload handles POST /kb/reload and rebuilds the index in place.
func (h *KBHandler) Reload(c *gin.Context) {
	n, err := h.kb.Load()
	if err != nil {
		h.log.Error().Err(err).Msg("kb reload failed")
		writeJSON(c, http.StatusOK, gin.H{"reloaded": false, "error": err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"reloaded": true, "count": n})
}
