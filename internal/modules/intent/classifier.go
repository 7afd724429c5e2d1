// README: Keyword-cascade intent classification for the intake flows.
package intent

import "strings"

// Intent is the high-level user goal recognized from free text.
type Intent string

const (
	Rent   Intent = "rent"
	Renew  Intent = "renew"
	Return Intent = "return"
	Other  Intent = "other"
)

// Flow reports whether the intent starts a dialogue flow (everything
// except Other).
func (i Intent) Flow() bool {
	return i == Rent || i == Renew || i == Return
}

// Device shorthand ("tl" for tire-lait) combined with a failure word is
// read as a return request even without an explicit return keyword.
var shorthandTokens = []string{"tl", "t.l", "t l"}

var failureWords = []string{
	"ne fonctionne", "ne marche", "panne", "cassé", "cassée",
	"pas marche", "pas fonctionner",
}

var rentWords = []string{
	// French
	"location", "louer", "tire-lait", "tire lait", "tirelait",
	// English
	"rent", "rental", "breast pump",
	// Arabic
	"استئجار", "تأجير", "شفاط",
}

var renewWords = []string{
	// French
	"renouvel", "prolong",
	// English
	"renew", "extend", "extension",
	// Arabic
	"تجديد", "تمديد",
}

var returnWords = []string{
	// French
	"retour", "rendre", "renvoyer", "restituer",
	// English
	"return", "send back",
	// Arabic
	"إرجاع", "إعادة", "رجوع",
}

// Classify maps free text to an Intent. First matching cascade wins, in
// the order: shorthand failure report, rent, renew, return.
func Classify(text string) Intent {
	t := strings.ToLower(text)
	if containsAny(t, shorthandTokens) && containsAny(t, failureWords) {
		return Return
	}
	switch {
	case containsAny(t, rentWords):
		return Rent
	case containsAny(t, renewWords):
		return Renew
	case containsAny(t, returnWords):
		return Return
	}
	return Other
}

func containsAny(t string, words []string) bool {
	for _, w := range words {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}
