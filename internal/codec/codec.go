// Package codec implements the raw tabular codec from spec §4.A: UTF-8
// validated split/join of TSV rows and tab-delimited cells, plus the
// transpose operation used by `.transposed.tsv` files (spec §6.1).
package codec

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Line is either a raw comment/blank line (preserved verbatim for
// round-trip, spec §3 Dataset) or a sequence of tab-delimited cells.
type Line struct {
	IsComment bool
	Text      string   // valid when IsComment
	Cells     []string // valid when !IsComment
}

// CommentLine constructs a preserved raw line.
func CommentLine(text string) Line { return Line{IsComment: true, Text: text} }

// CellsLine constructs a tab-delimited line.
func CellsLine(cells []string) Line { return Line{Cells: cells} }

// isCommentText reports whether a physical line should be preserved
// verbatim: blank lines and lines beginning with '#' (spec §4.A, §6.1).
func isCommentText(s string) bool {
	return s == "" || strings.HasPrefix(s, "#")
}

// Decode splits UTF-8 text into a sequence of Lines. Line endings are
// normalized on input: "\r\n" and lone "\r" are treated as "\n" (spec §6.1
// "accept \r\n/\r on input, normalize on output").
func Decode(text string) ([]Line, error) {
	if !utf8.ValidString(text) {
		return nil, errors.New("decode: input is not valid UTF-8")
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")

	if normalized == "" {
		return nil, nil
	}

	rawLines := strings.Split(normalized, "\n")
	lines := make([]Line, 0, len(rawLines))
	for _, raw := range rawLines {
		if isCommentText(raw) {
			lines = append(lines, CommentLine(raw))
			continue
		}
		lines = append(lines, CellsLine(strings.Split(raw, "\t")))
	}
	return lines, nil
}

// Encode joins a sequence of Lines into UTF-8 text with "\n" line
// terminators and "\t" cell separators. Cells containing "\t", "\r", or "\n"
// are rejected, as is non-UTF-8 content (spec §4.A).
func Encode(lines []Line) (string, error) {
	var b strings.Builder
	for i, line := range lines {
		if line.IsComment {
			if !utf8.ValidString(line.Text) {
				return "", errors.Errorf("encode: comment line %d is not valid UTF-8", i+1)
			}
			if strings.ContainsAny(line.Text, "\t\r\n") {
				return "", errors.Errorf("encode: comment line %d contains a forbidden character", i+1)
			}
			b.WriteString(line.Text)
		} else {
			for j, cell := range line.Cells {
				if !utf8.ValidString(cell) {
					return "", errors.Errorf("encode: cell %d on line %d is not valid UTF-8", j+1, i+1)
				}
				if strings.ContainsAny(cell, "\t\r\n") {
					return "", errors.Errorf("encode: cell %d on line %d contains a forbidden character", j+1, i+1)
				}
				if j > 0 {
					b.WriteByte('\t')
				}
				b.WriteString(cell)
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// dummyCommentColumn formats the synthetic column-spec placeholder a
// transposed comment line becomes, per spec §4.A: "dummyN:comment".
func dummyCommentColumn(n int) string {
	return "dummy" + itoa(n) + ":comment"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Transpose swaps rows and columns of a decoded sequence. Each comment/raw
// line is first synthesized into a 2-cell row (dummyN:comment, original
// text) so the grid is rectangular before the swap; the result contains only
// Cells lines (spec §4.A). The higher-level Dataset layer (internal/dataset)
// is responsible for recognizing these synthetic "dummyN:comment" columns
// when reversing a transpose for output and restoring them to raw comment
// lines.
func Transpose(lines []Line) []Line {
	if len(lines) == 0 {
		return nil
	}

	width := 0
	for _, l := range lines {
		if !l.IsComment && len(l.Cells) > width {
			width = len(l.Cells)
		}
	}
	if width < 2 {
		width = 2
	}

	matrix := make([][]string, len(lines))
	dummyCount := 0
	for i, l := range lines {
		row := make([]string, width)
		if l.IsComment {
			dummyCount++
			row[0] = dummyCommentColumn(dummyCount)
			row[1] = l.Text
		} else {
			copy(row, l.Cells)
		}
		matrix[i] = row
	}

	out := make([]Line, width)
	for c := 0; c < width; c++ {
		cells := make([]string, len(lines))
		for r := range lines {
			cells[r] = matrix[r][c]
		}
		out[c] = CellsLine(cells)
	}
	return out
}

// IsDummyCommentColumn reports whether a column's (name, typeSpec) pair
// matches the synthetic placeholder convention "dummyN:comment" produced by
// Transpose, and if so returns true.
func IsDummyCommentColumn(name, typeSpec string) bool {
	return strings.HasPrefix(name, "dummy") && typeSpec == "comment"
}
