package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// WidthTable maps characters to advance widths in em units.
// Characters missing from Widths advance by Default.
type WidthTable struct {
	Widths  map[rune]float64
	Default float64
}

// Uniform returns a table in which every character advances by w.
func Uniform(w float64) WidthTable {
	return WidthTable{Default: w}
}

// Advance returns the em advance of r. Negative widths are treated as zero.
func (t WidthTable) Advance(r rune) float64 {
	w, ok := t.Widths[r]
	if !ok {
		w = t.Default
	}
	return max(w, 0)
}

// With returns a copy of t with r mapped to w.
func (t WidthTable) With(r rune, w float64) WidthTable {
	m := make(map[rune]float64, len(t.Widths)+1)
	for k, v := range t.Widths {
		m[k] = v
	}
	m[r] = w
	return WidthTable{Widths: m, Default: t.Default}
}

// SplitLines normalizes text to NFC and splits it into display lines on
// LF, CRLF or CR. An empty string yields no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
