// README: Tri-state affirmation / negation classification.
package intent

import "strings"

// Polarity is the tri-state yes/no reading of an utterance.
type Polarity int

const (
	Neither Polarity = iota
	Affirmative
	Negative
)

var affirmativeTokens = map[string]bool{
	"oui": true, "yes": true, "y": true, "o": true, "ok": true,
	"yep": true, "yeah": true, "d'accord": true, "daccord": true,
	"confirme": true, "confirmé": true, "confirm": true, "confirmed": true,
	"نعم": true,
}

var negativeTokens = map[string]bool{
	"non": true, "no": true, "not": true, "n": true, "nope": true,
	"لا": true,
}

// Polarize classifies text as Affirmative, Negative or Neither. Tokens
// are matched whole (split on spaces and punctuation) so that words
// merely containing "no" or "y" do not misfire. Affirmatives win over
// negatives when both appear.
func Polarize(text string) Polarity {
	tt := strings.ToLower(strings.TrimSpace(text))
	if tt == "" {
		return Neither
	}
	neg := false
	for _, tok := range strings.FieldsFunc(tt, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\n' || r == '\t'
	}) {
		if affirmativeTokens[tok] {
			return Affirmative
		}
		if negativeTokens[tok] {
			neg = true
		}
	}
	if neg {
		return Negative
	}
	return Neither
}
