package diag

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
)

// Logger is the minimal interface a custom logger must satisfy to receive
// sink-formatted diagnostic lines (spec §4.J "optional custom logger").
// internal/logging.Logger implements this.
type Logger interface {
	Log(level, module, message string)
}

// nullLogger discards everything. Used by NewNullSink (spec §4.J "null sink
// variant counts errors without logging, for exploratory type parsing").
type nullLogger struct{}

func (nullLogger) Log(level, module, message string) {}

// Sink is the stateful, callable error-collection sink ("badVal") from
// spec §4.J. A Sink is scoped to one source file at a time; the orchestrator
// constructs one Sink per file (resetting scope) but shares the Errors
// counter and Logger across the whole run so §7's "errors counter" is
// process-wide.
type Sink struct {
	SourceName string
	Transposed bool

	lineNo   uint64
	rowKey   string
	colName  string
	colIdx   int
	colTypes []string

	errors *int
	logger Logger
}

// NewSink constructs a Sink with a fresh error counter and the given logger.
// A nil logger discards formatted output but still counts errors.
func NewSink(logger Logger) *Sink {
	if logger == nil {
		logger = nullLogger{}
	}
	n := 0
	return &Sink{errors: &n, logger: logger}
}

// NewNullSink constructs a Sink that never logs, only counts. Used for
// exploratory type parsing (e.g. probing whether a value fits a type without
// wanting the probe's failures to show up in a run's diagnostics).
func NewNullSink() *Sink {
	return NewSink(nil)
}

// ForFile returns a copy of the sink scoped to a new source file, sharing
// the same error counter and logger as the parent.
func (s *Sink) ForFile(sourceName string, transposed bool) *Sink {
	return &Sink{
		SourceName: sourceName,
		Transposed: transposed,
		errors:     s.errors,
		logger:     s.logger,
	}
}

// AtLine returns a copy of the sink positioned at a given line/row.
func (s *Sink) AtLine(lineNo uint64, rowKey string) *Sink {
	cp := *s
	cp.lineNo = lineNo
	cp.rowKey = rowKey
	return &cp
}

// AtColumn returns a copy of the sink positioned at a given column.
func (s *Sink) AtColumn(colName string, colIdx int) *Sink {
	cp := *s
	cp.colName = colName
	cp.colIdx = colIdx
	return &cp
}

// ErrorCount returns the number of errors recorded by this sink and all
// sinks derived from it via ForFile/AtLine/AtColumn.
func (s *Sink) ErrorCount() int {
	return *s.errors
}

// Report formats and records a diagnostic message. It mirrors the shape
// mandated by spec §4.J:
//
//	Bad <top_of_col_types> at <source>:<line> (<row_key>), col <col_name>/<col_idx>: <serialized value> (<err>)
func (s *Sink) Report(value cellvalue.Value, errText string) error {
	*s.errors++

	expected := "value"
	if n := len(s.colTypes); n > 0 {
		expected = s.colTypes[n-1]
	}

	msg := fmt.Sprintf("Bad %s at %s:%d (%s), col %s/%d: %s (%s)",
		expected, s.SourceName, s.lineNo, s.rowKey, s.colName, s.colIdx, value.GoString(), errText)

	s.logger.Log("ERROR", "diag", msg)
	return KindValue.New(msg)
}

// ReportKind is like Report but files the diagnostic under a specific
// error-taxonomy Kind instead of always KindValue.
func (s *Sink) ReportKind(kind *Kind, value cellvalue.Value, errText string) error {
	*s.errors++
	expected := "value"
	if n := len(s.colTypes); n > 0 {
		expected = s.colTypes[n-1]
	}
	msg := fmt.Sprintf("Bad %s at %s:%d (%s), col %s/%d: %s (%s)",
		expected, s.SourceName, s.lineNo, s.rowKey, s.colName, s.colIdx, value.GoString(), errText)
	s.logger.Log("ERROR", "diag", msg)
	return kind.New(msg)
}

// Wrap attaches file/line context to a lower-level cause using pkg/errors.
func (s *Sink) Wrap(cause error, context string) error {
	return errors.Wrapf(cause, "%s (%s:%d)", context, s.SourceName, s.lineNo)
}

// WithColType pushes t onto the sink's stack of expected types for the
// duration of fn, guaranteeing the pop happens on every exit path (including
// a panic unwinding through fn), mirroring the RAII-style scoped helper
// required by spec §4.J.
func WithColType(s *Sink, t string, fn func() error) error {
	s.colTypes = append(s.colTypes, t)
	defer func() {
		s.colTypes = s.colTypes[:len(s.colTypes)-1]
	}()
	return fn()
}

