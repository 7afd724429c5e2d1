// README: Pure field extractors: name pair, slash dates, 5-digit postal
// code, order reference, and the labeled-field parser used in edit mode.
package dialogue

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// slot names a single collectable field. slotDates is the combined
// start+end label used only in missing-field enumerations.
type slot int

const (
	slotName slot = iota
	slotStart
	slotEnd
	slotDates
	slotPostal
	slotFiles
	slotOrderRef
	slotChoice
	slotPhoto
)

var (
	dateRe     = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	postalRe   = regexp.MustCompile(`\b\d{5}\b`)
	orderRefRe = regexp.MustCompile(`\b[A-Za-z0-9\-]{4,}\b`)
)

const nameLengthCeiling = 80

// extractName parses a "last, first" pair. With a separator present the
// first two non-empty segments are joined by a space; otherwise the first
// two whitespace tokens are taken, provided the input stays under the
// length ceiling. Returns "" on no match.
func extractName(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	if strings.ContainsAny(t, ",;\n") {
		var parts []string
		for _, seg := range strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n'
		}) {
			if seg = strings.TrimSpace(seg); seg != "" {
				parts = append(parts, seg)
			}
			if len(parts) == 2 {
				return strings.Join(parts, " ")
			}
		}
		return ""
	}
	if len(t) > nameLengthCeiling {
		return ""
	}
	fs := strings.Fields(t)
	if len(fs) < 2 {
		return ""
	}
	return fs[0] + " " + fs[1]
}

// extractDates returns every dd/mm/yyyy-shaped token, in order. No
// calendar validation: 31/02/2026 passes.
func extractDates(text string) []string {
	return dateRe.FindAllString(text, -1)
}

// extractPostal returns the first 5-consecutive-digit token, or "".
func extractPostal(text string) string {
	return postalRe.FindString(text)
}

// extractOrderRef returns the first plausible order reference token.
// Date and postal shaped tokens are removed first so their digit runs
// never pass for a reference.
func extractOrderRef(text string) string {
	return orderRefRe.FindString(stripScalarTokens(text))
}

var choiceWords = []string{"echange", "échange", "exchange", "استبدال", "remboursement", "rembourse", "refund", "استرداد"}

// extractChoice normalizes an exchange/refund keyword, or returns "".
func extractChoice(text string) string {
	lt := strings.ToLower(text)
	for _, w := range choiceWords[:4] {
		if strings.Contains(lt, w) {
			return "exchange"
		}
	}
	for _, w := range choiceWords[4:] {
		if strings.Contains(lt, w) {
			return "refund"
		}
	}
	return ""
}

// Label synonyms for edit mode, per field. Longer synonyms come first so
// the value capture starts after the full label.
var fieldSynonyms = []struct {
	field slot
	names []string
}{
	{slotPostal, []string{"code postal", "postal code", "الرمز البريدي", "postal", "cp"}},
	{slotStart, []string{"date de debut", "date de début", "date debut", "date début", "start date", "تاريخ البدء", "debut", "début"}},
	{slotEnd, []string{"date de fin", "date fin", "end date", "تاريخ النهاية", "fin"}},
	{slotName, []string{"nom et prenom", "nom et prénom", "name", "الاسم", "nom"}},
}

// parseLabeled scans for "<label> : <value>" with a known field label.
// The first matching field wins; the captured value runs to end of line.
// Matching is case-insensitive on the original string so the value keeps
// its casing and byte offsets stay valid even where lowercasing would
// change rune widths.
func parseLabeled(text string) (slot, string, bool) {
	for _, fs := range fieldSynonyms {
		for _, label := range fs.names {
			i := labelIndexEnd(text, label)
			if i < 0 {
				continue
			}
			rest := strings.TrimLeft(text[i:], " \t")
			if !strings.HasPrefix(rest, ":") {
				continue
			}
			v := rest[1:]
			if j := strings.IndexByte(v, '\n'); j >= 0 {
				v = v[:j]
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			return fs.field, v, true
		}
	}
	return 0, "", false
}

// labelIndexEnd returns the byte offset just past the first
// case-insensitive occurrence of label in s, or -1.
func labelIndexEnd(s, label string) int {
	for i := range s {
		if n, ok := foldPrefix(s[i:], label); ok {
			return i + n
		}
	}
	return -1
}

// foldPrefix reports whether s starts with label under per-rune case
// folding, returning the byte length of the matched prefix in s.
func foldPrefix(s, label string) (int, bool) {
	n := 0
	for _, lr := range label {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if r != lr && unicode.ToLower(r) != unicode.ToLower(lr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// applyEdit re-parses a labeled value with the field's typed extractor
// and writes it into d. Reports false when the value does not parse.
func applyEdit(d *Details, f slot, value string) bool {
	switch f {
	case slotName:
		if n := extractName(value); n != "" {
			d.Name = n
			return true
		}
	case slotStart:
		if ds := extractDates(value); len(ds) > 0 {
			d.StartDate = ds[0]
			return true
		}
	case slotEnd:
		if ds := extractDates(value); len(ds) > 0 {
			d.EndDate = ds[len(ds)-1]
			return true
		}
	case slotPostal:
		if p := extractPostal(value); p != "" {
			d.PostalCode = p
			return true
		}
	}
	return false
}
