package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulua/tabulua/internal/cellvalue"
)

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Log(level, module, message string) {
	r.lines = append(r.lines, level+"|"+module+"|"+message)
}

func TestSinkReportFormatsMessage(t *testing.T) {
	logger := &recordingLogger{}
	sink := NewSink(logger)
	sink = sink.ForFile("items.tsv", false)
	sink = sink.AtLine(3, "sword")
	sink = sink.AtColumn("price", 2)

	err := WithColType(sink, "number", func() error {
		return sink.Report(cellvalue.String("oops"), "not a number")
	})

	require.Error(t, err)
	assert.Equal(t, 1, sink.ErrorCount())
	assert.Contains(t, err.Error(), "Bad number at items.tsv:3 (sword), col price/2")
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "ERROR|diag|Bad number")
}

func TestWithColTypePopsOnPanic(t *testing.T) {
	sink := NewSink(nil)
	func() {
		defer func() { recover() }()
		_ = WithColType(sink, "integer", func() error {
			panic("boom")
		})
	}()
	assert.Empty(t, sink.colTypes)
}

func TestNullSinkCountsWithoutLogging(t *testing.T) {
	sink := NewNullSink()
	_ = sink.Report(cellvalue.Nil, "bad")
	assert.Equal(t, 1, sink.ErrorCount())
}

func TestForFileSharesErrorCounter(t *testing.T) {
	parent := NewSink(nil)
	a := parent.ForFile("a.tsv", false)
	b := parent.ForFile("b.tsv", false)
	_ = a.Report(cellvalue.Nil, "e1")
	_ = b.Report(cellvalue.Nil, "e2")
	assert.Equal(t, 2, parent.ErrorCount())
}
