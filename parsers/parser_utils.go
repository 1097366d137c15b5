package parsers

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SkipBOM drops a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	if bytes.Equal(peeked, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	return br
}

// decodeText returns data as UTF-8. Files saved by older spreadsheet tools
// arrive in Windows-1252 and are converted.
func decodeText(data []byte) io.Reader {
	if utf8.Valid(data) {
		return SkipBOM(bytes.NewReader(data))
	}
	return transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
}

// sniffDelimiter picks the most frequent of , ; and tab on the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldText lowercases s and strips its accents.
func FoldText(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// NormalizeHeader folds a column title to lowercase ascii words separated
// by single spaces, so "N° CIN" and "n cin" compare equal.
func NormalizeHeader(s string) string {
	folded := FoldText(strings.TrimSpace(s))
	var b strings.Builder
	space := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

// Aliases maps normalized column titles to field names.
type Aliases map[string]string

// HeaderMap maps field names to column indexes.
type HeaderMap map[string]int

// MapHeader resolves the header row against aliases. The first column wins
// when two columns map to the same field; unknown and duplicate columns are
// returned as ignored.
func MapHeader(header []string, aliases Aliases, required []string) (HeaderMap, []string, error) {
	cols := HeaderMap{}
	ignored := []string{}
	for i, title := range header {
		key := NormalizeHeader(title)
		if key == "" {
			continue
		}
		field, ok := aliases[key]
		if !ok {
			ignored = append(ignored, strings.TrimSpace(title))
			continue
		}
		if _, dup := cols[field]; dup {
			ignored = append(ignored, strings.TrimSpace(title))
			continue
		}
		cols[field] = i
	}

	var missing []string
	for _, req := range required {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, ignored, fmt.Errorf("colonnes obligatoires manquantes : %s", strings.Join(missing, ", "))
	}
	return cols, ignored, nil
}

// Get returns the trimmed cell of field in row, or "".
func (h HeaderMap) Get(row []string, field string) string {
	idx, ok := h[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
