// README: Text normalization for knowledge-base matching: accent
// stripping, run-together word fixes, tokenization with synonym
// expansion, and stopword filtering.
package kb

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripAccents lowercases and removes combining marks, so "problème"
// and "probleme" compare equal.
func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Users often drop the space after short function words ("nefonctionne").
var spacingFixes = []struct {
	re  *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`\bne([a-z])`), "ne $1"},
	{regexp.MustCompile(`\bce([a-z])`), "ce $1"},
	{regexp.MustCompile(`\bqu([a-z])`), "qu $1"},
}

func fixSpacing(s string) string {
	s = strings.ToLower(s)
	for _, f := range spacingFixes {
		s = f.re.ReplaceAllString(s, f.rep)
	}
	return s
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// tokenize normalizes text into a token set, expanding the device
// shorthand and bridging "ne"/"pas" so negated phrasings overlap.
func tokenize(s string) map[string]struct{} {
	t := stripAccents(fixSpacing(s))
	out := make(map[string]struct{})
	for _, tok := range tokenSplit.Split(t, -1) {
		if tok == "" {
			continue
		}
		out[tok] = struct{}{}
		switch tok {
		case "tl", "tirelait":
			out["tire"] = struct{}{}
			out["lait"] = struct{}{}
		case "ne":
			out["pas"] = struct{}{}
		case "pas":
			out["ne"] = struct{}{}
		}
	}
	return out
}

var stopwords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "de": {}, "des": {}, "du": {}, "un": {},
	"une": {}, "et": {}, "ou": {}, "je": {}, "il": {}, "elle": {}, "en": {},
	"sur": {}, "au": {}, "aux": {}, "pour": {}, "pas": {}, "c": {}, "ce": {},
	"se": {}, "ne": {}, "plus": {}, "mon": {}, "ma": {}, "mes": {}, "ton": {},
	"ta": {}, "tes": {}, "est": {}, "que": {}, "qui": {}, "qu": {}, "d": {},
	"l": {}, "y": {}, "a": {}, "aujourd": {}, "hui": {},
}

// queryTokens tokenizes a raw query without synonym expansion and drops
// stopwords.
func queryTokens(q string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range tokenSplit.Split(stripAccents(q), -1) {
		if tok == "" {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func intersect(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
