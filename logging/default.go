package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"
)

// DefaultLogger writes leveled, human-readable lines through the standard log
// package. Debug and Info go to stdout; Warn and above go to stderr so a
// renderer's frame output can be piped without losing diagnostics. Fields are
// rendered as sorted key=value pairs so repeated runs produce stable lines.
type DefaultLogger struct {
	out    *log.Logger
	errOut *log.Logger
	level  Level
	fields Fields

	useColors bool
}

// NewDefaultLogger builds a logger at InfoLevel, coloring the level tag when
// stderr is a terminal.
func NewDefaultLogger() *DefaultLogger {
	l := NewDefaultLoggerTo(os.Stdout, os.Stderr)
	l.useColors = colorCapable(os.Stderr)
	return l
}

// NewDefaultLoggerTo directs output at arbitrary writers, uncolored. Tests
// use it to capture lines.
func NewDefaultLoggerTo(out, errOut io.Writer) *DefaultLogger {
	return &DefaultLogger{
		out:    log.New(out, "", log.LstdFlags),
		errOut: log.New(errOut, "", log.LstdFlags),
		level:  InfoLevel,
		fields: Fields{},
	}
}

// colorCapable reports whether the file is a character device and the
// environment has not opted out via NO_COLOR or a dumb terminal.
func colorCapable(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// levelColor returns the ANSI prefix for a level tag, empty for quiet levels.
func levelColor(level Level) string {
	switch level {
	case WarnLevel:
		return ColorYellow
	case ErrorLevel:
		return ColorRed
	case FatalLevel:
		return ColorBold + ColorRed
	default:
		return ""
	}
}

func (d *DefaultLogger) emit(level Level, err error, msg string, fields []Fields) {
	if level < d.level {
		return
	}

	var b strings.Builder
	tag := level.String()
	if c := levelColor(level); d.useColors && c != "" {
		tag = c + tag + ColorReset
	}
	fmt.Fprintf(&b, "[%s] %s", tag, msg)
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}

	merged := d.merge(fields)
	for _, k := range sortedKeys(merged) {
		fmt.Fprintf(&b, " %s=%v", k, merged[k])
	}

	line := b.String()
	switch {
	case level >= WarnLevel:
		d.errOut.Println(line)
	default:
		d.out.Println(line)
	}
	if level == FatalLevel {
		os.Exit(1)
	}
}

// merge overlays call-site fields on the logger's preset ones.
func (d *DefaultLogger) merge(fields []Fields) Fields {
	merged := make(Fields, len(d.fields))
	for k, v := range d.fields {
		merged[k] = v
	}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) { d.emit(DebugLevel, nil, msg, fields) }
func (d *DefaultLogger) Info(msg string, fields ...Fields)  { d.emit(InfoLevel, nil, msg, fields) }
func (d *DefaultLogger) Warn(msg string, fields ...Fields)  { d.emit(WarnLevel, nil, msg, fields) }

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.emit(ErrorLevel, err, msg, fields)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.emit(FatalLevel, err, msg, fields)
}

// WithFields returns a child logger whose preset fields are carried into
// every line. The parent is never mutated.
func (d *DefaultLogger) WithFields(fields Fields) Logger {
	child := *d
	child.fields = d.merge([]Fields{fields})
	return &child
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger { return d }

func (d *DefaultLogger) SetLevel(level Level) { d.level = level }

// NoOpLogger discards everything. Tests install it globally to keep output
// clean.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
