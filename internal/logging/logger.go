// Package logging wraps logrus with the TSV diagnostic line format required
// by spec §7: "every error yields a single TSV-formatted log line
// `timestamp\tLEVEL\t[module]\tmessage`". All output is routed through one
// configured sink rather than calling fmt.Println from individual
// components.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// tsvFormatter renders a logrus.Entry as "timestamp\tLEVEL\t[module]\tmessage".
type tsvFormatter struct{}

func (tsvFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	module, _ := entry.Data["module"].(string)
	if module == "" {
		module = "tabulua"
	}

	level := strings.ToUpper(entry.Level.String())

	var b strings.Builder
	b.WriteString(entry.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte('\t')
	b.WriteString(level)
	b.WriteByte('\t')
	b.WriteByte('[')
	b.WriteString(module)
	b.WriteByte(']')
	b.WriteByte('\t')
	b.WriteString(entry.Message)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// Logger is a structured, TSV-formatted logger satisfying diag.Logger.
type Logger struct {
	entry *logrus.Logger
}

// New constructs a Logger writing to w at the given level name
// ("debug", "info", "warn", "error"; unrecognized names default to "info").
func New(w io.Writer, levelName string) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(tsvFormatter{})
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return &Logger{entry: l}
}

// Discard constructs a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, "panic")
}

// Log implements diag.Logger.
func (l *Logger) Log(level, module, message string) {
	entry := l.entry.WithField("module", module)
	switch strings.ToUpper(level) {
	case "ERROR":
		entry.Error(message)
	case "WARN", "WARNING":
		entry.Warn(message)
	case "DEBUG":
		entry.Debug(message)
	default:
		entry.Info(message)
	}
}
