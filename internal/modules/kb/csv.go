// README: CSV loading for the Q/A corpus. Sniffs encoding and delimiter
// so hand-exported spreadsheets (cp1252, semicolons) load as-is.
package kb

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// readRows parses the CSV at path into (question, answer) pairs. Columns
// are located from the header; rows that don't line up fall back to the
// last two non-empty cells.
func readRows(path string) ([][2]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kb: read csv: %w", err)
	}
	text, err := decodeBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("kb: decode csv: %w", err)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][2]string
	qIdx, aIdx := -1, -1
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kb: parse csv: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		if first {
			qIdx, aIdx = headerIndices(rec)
			first = false
			continue
		}
		if qIdx >= 0 && aIdx >= 0 && len(rec) > max(qIdx, aIdx) {
			q := strings.TrimSpace(rec[qIdx])
			a := strings.TrimSpace(rec[aIdx])
			if q != "" && a != "" {
				rows = append(rows, [2]string{q, a})
			}
			continue
		}
		var cells []string
		for _, c := range rec {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) >= 2 {
			rows = append(rows, [2]string{cells[len(cells)-2], cells[len(cells)-1]})
		}
	}
	return rows, nil
}

func decodeBytes(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// sniffDelimiter prefers semicolons when they are at least as frequent
// as commas in the leading sample.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if strings.Count(sample, ";") >= strings.Count(sample, ",") {
		return ';'
	}
	return ','
}

func headerIndices(header []string) (qIdx, aIdx int) {
	qIdx, aIdx = -1, -1
	for i, h := range header {
		hn := stripAccents(strings.TrimSpace(h))
		if qIdx < 0 && strings.Contains(hn, "quest") {
			qIdx = i
		}
		if aIdx < 0 && (strings.Contains(hn, "repon") || strings.Contains(hn, "answer")) {
			aIdx = i
		}
	}
	return qIdx, aIdx
}
