// README: Language codes and normalization of client-supplied hints.
package language

import "strings"

// Code is one of the three languages the assistant speaks.
type Code string

const (
	FR Code = "fr"
	EN Code = "en"
	AR Code = "ar"

	// Default is used for empty input, unrecognized hints, and count ties.
	Default = FR
)

// Normalize maps a client hint ("fr", "French", "arabe", ...) to a Code.
// Unrecognized hints report ok=false; callers fall back to Default.
func Normalize(s string) (Code, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fr", "french", "français", "francais":
		return FR, true
	case "en", "english", "anglais":
		return EN, true
	case "ar", "arabic", "arabe", "عربي", "العربية":
		return AR, true
	}
	return Default, false
}
