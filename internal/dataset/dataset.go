package dataset

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/codec"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/typereg"
)

// DefaultCellBudget is the per-expression operation budget for cell
// expressions (spec §4.F: "default 10,000 for cell expressions").
const DefaultCellBudget = 10000

// BodySlot is one entry of a Dataset's body (spec §3 Dataset: "slots 2..N
// are rows or raw text lines"): either a preserved comment/blank line or a
// built Row.
type BodySlot struct {
	IsComment bool
	Text      string // valid when IsComment
	Row       *Row   // valid when !IsComment
	Line      int    // 1-based position in the decoded file
}

// Dataset is the immutable header+body sequence of spec §3 Dataset.
type Dataset struct {
	Source     string
	Header     *Header
	Body       []BodySlot
	Transposed bool

	keyIndex map[string]int // primary key string -> Body index
}

// Build implements spec §4.G's dataset assembly: slot 1 is the header,
// every subsequent line is either preserved verbatim (comment/blank) or
// built into a Row via the §4.G cell scheduler. Build also runs §4.A's
// Transpose in reverse conceptually: callers pass already-transposed lines
// in (the orchestrator is responsible for calling codec.Transpose before
// Build when the source file ends in ".transposed.tsv"); Dataset itself
// only remembers Transposed so ToString (tostring(dataset)) can reverse it.
func Build(sink *diag.Sink, source string, lines []codec.Line, reg *typereg.Registry, transposed bool) (*Dataset, error) {
	if len(lines) == 0 {
		return nil, errors.Errorf("%s: empty file, no header line", source)
	}
	if lines[0].IsComment {
		return nil, sink.ReportKind(diag.KindStructural, cellvalue.Nil, "first line must be the column header, not a comment")
	}

	header, err := BuildHeader(sink, source, lines[0].Cells, reg)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Source: source, Header: header, Transposed: transposed, keyIndex: map[string]int{}}

	for i, line := range lines[1:] {
		lineNo := i + 2 // 1-based position in file; line 1 is the header
		if line.IsComment {
			ds.Body = append(ds.Body, BodySlot{IsComment: true, Text: line.Text, Line: lineNo})
			continue
		}
		row, err := buildRow(sink.AtLine(uint64(lineNo), ""), header, lineNo, line.Cells, DefaultCellBudget)
		if err != nil {
			return nil, err
		}
		row.dataset = ds
		slotIdx := len(ds.Body)
		ds.Body = append(ds.Body, BodySlot{Row: row, Line: lineNo})
		if row.pkKey != "" {
			if _, dup := ds.keyIndex[row.pkKey]; dup {
				sink.AtLine(uint64(lineNo), row.pkKey).ReportKind(diag.KindStructural, row.pkValue, "duplicate primary key")
			} else {
				ds.keyIndex[row.pkKey] = slotIdx
			}
		}
	}
	return ds, nil
}


// Row resolves a dataset(line) access: line is either the row's 1-based
// line number in the file (the header is line 1, so the first body line
// is 2; comment lines count toward the numbering but never resolve to a
// row) or a primary-key string.
func (d *Dataset) Row(line interface{}) (*Row, bool) {
	switch v := line.(type) {
	case int:
		for _, slot := range d.Body {
			if slot.Line == v && !slot.IsComment {
				return slot.Row, true
			}
		}
		return nil, false
	case string:
		if idx, ok := d.keyIndex[v]; ok {
			return d.Body[idx].Row, true
		}
		if n, err := strconv.Atoi(v); err == nil {
			return d.Row(n)
		}
		return nil, false
	default:
		return nil, false
	}
}

// Cell resolves a dataset(line, col) access.
func (d *Dataset) Cell(line interface{}, col interface{}) (Cell, bool) {
	row, ok := d.Row(line)
	if !ok {
		return Cell{}, false
	}
	switch c := col.(type) {
	case int:
		if c < 1 || c > len(row.Cells) {
			return Cell{}, false
		}
		return row.Cells[c-1], true
	case string:
		column, ok := d.Header.ColumnByName(c)
		if !ok {
			return Cell{}, false
		}
		return row.Cells[column.Idx-1], true
	default:
		return Cell{}, false
	}
}

// Rows returns every data row in file order, skipping preserved comments.
func (d *Dataset) Rows() []*Row {
	out := make([]*Row, 0, len(d.Body))
	for _, slot := range d.Body {
		if !slot.IsComment {
			out = append(out, slot.Row)
		}
	}
	return out
}

// ToString regenerates the dataset's TSV text (spec §4.G "tostring(dataset)
// regenerates the file"). Transposed datasets are re-transposed before
// printing and reverse __commentN placeholder columns back to their
// original comment lines.
func (d *Dataset) ToString() (string, error) {
	lines := make([]codec.Line, 0, len(d.Body)+1)
	lines = append(lines, codec.CellsLine(headerCells(d.Header)))
	for _, slot := range d.Body {
		if slot.IsComment {
			lines = append(lines, codec.CommentLine(slot.Text))
			continue
		}
		lines = append(lines, codec.CellsLine(rowCells(slot.Row)))
	}

	if d.Transposed {
		lines = reverseTranspose(lines)
	}
	return codec.Encode(lines)
}

func headerCells(h *Header) []string {
	cells := make([]string, len(h.Columns))
	for i, c := range h.Columns {
		spec := c.Name
		if c.Published {
			spec += "!"
		}
		spec += ":" + c.TypeSpecText
		if c.HasDefault {
			spec += ":" + c.DefaultExpr
		}
		cells[i] = spec
	}
	return cells
}

func rowCells(r *Row) []string {
	cells := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		cells[i] = c.Reformatted
	}
	return cells
}

// reverseTranspose undoes codec.Transpose: swaps rows/columns back and
// restores any "dummyN:comment" synthetic column to a raw comment line,
// per spec §4.A's round-trip requirement.
func reverseTranspose(lines []codec.Line) []codec.Line {
	swapped := codec.Transpose(lines)
	out := make([]codec.Line, 0, len(swapped))
	for _, l := range swapped {
		if len(l.Cells) >= 2 {
			name, typeSpec := splitDummySpec(l.Cells[0])
			if codec.IsDummyCommentColumn(name, typeSpec) {
				out = append(out, codec.CommentLine(l.Cells[1]))
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

func splitDummySpec(spec string) (name, typeSpec string) {
	i := indexOfColon(spec)
	if i < 0 {
		return spec, ""
	}
	return spec[:i], spec[i+1:]
}

func indexOfColon(s string) int {
	return strings.IndexByte(s, ':')
}
