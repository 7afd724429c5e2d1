// README: Heuristic language detection with optional generative refinement.
package language

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Refiner is an optional second-opinion detector backed by a generative
// model. It returns a raw language token ("fr" | "en" | "ar").
type Refiner interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// Detector classifies free text into one of the three language codes.
// Priority order: script cues, then strong multi-word phrase cues, then
// accumulated keyword counts. Ties resolve to Default.
type Detector struct {
	refiner Refiner
	log     zerolog.Logger
}

// NewDetector builds a Detector. refiner may be nil; it is only consulted
// when set, and the heuristic result stands whenever it fails.
func NewDetector(refiner Refiner, log zerolog.Logger) *Detector {
	return &Detector{refiner: refiner, log: log}
}

// Detect returns the language of text. Empty text is Default.
func (d *Detector) Detect(ctx context.Context, text string) Code {
	if strings.TrimSpace(text) == "" {
		return Default
	}
	h := Heuristic(text)
	if d.refiner == nil {
		return h
	}
	raw, err := d.refiner.DetectLanguage(ctx, text)
	if err != nil {
		d.log.Warn().Err(err).Msg("language refinement failed, keeping heuristic")
		return h
	}
	if code, ok := Normalize(raw); ok {
		return code
	}
	return h
}

// Only multi-word phrases get phrase priority; single verbs like "rent"
// or "return" show up inside mixed-language text and stay in the counts.
var strongEnglishPhrases = []string{
	"i want", "i need", "i would like", "can you", "could you",
}

var frenchKeywords = []string{
	"bonjour", "merci", "s'il", "svp", "que", "est", "le", "la", "les",
	"et", "pour", "avec", "renouvel", "location", "louer", "ordonnance", "mutuelle",
}

var englishKeywords = []string{
	"hello", "hi", "hey", "thank", "thanks", "please", "how", "what",
	"want", "need", "pay", "ship", "rental", "prescription", "insurance",
	"buy", "purchase", "order", "return", "renew", "rent",
}

var arabicKeywords = []string{
	"مرحبا", "شكرا", "من فضلك", "اريد", "أريد", "تجديد", "استئجار",
	"استرجاع", "إرجاع", "بطاقة", "وصفة",
}

// Heuristic is the pure rule-based classifier.
func Heuristic(text string) Code {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Default
	}

	// Script cues win outright.
	if containsArabicScript(t) {
		return AR
	}
	if strings.ContainsAny(t, "éèêàâôûçùëïüœ") {
		return FR
	}

	// Strong phrase cues.
	for _, p := range strongEnglishPhrases {
		if strings.Contains(t, p) {
			return EN
		}
	}

	// Keyword counts.
	if countContained(t, arabicKeywords) > 0 {
		return AR
	}
	if countContained(t, englishKeywords) > countContained(t, frenchKeywords) {
		return EN
	}
	return Default
}

func containsArabicScript(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

func countContained(t string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(t, kw) {
			n++
		}
	}
	return n
}
