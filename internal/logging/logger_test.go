package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesTSVLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")
	logger.Log("ERROR", "diag", "bad value")

	line := strings.TrimSuffix(buf.String(), "\n")
	parts := strings.Split(line, "\t")
	if assert.Len(t, parts, 4) {
		assert.Equal(t, "ERROR", parts[1])
		assert.Equal(t, "[diag]", parts[2])
		assert.Equal(t, "bad value", parts[3])
	}
}

func TestDiscardLoggerLogDoesNotPanic(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Log("INFO", "test", "hello")
	})
}
