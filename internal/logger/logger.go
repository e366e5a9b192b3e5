package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Option func(*options)

type options struct {
	out    io.Writer
	extras []io.Writer
}

// WithOutput 替換主要輸出，預設為 stderr，避免污染CLI的stdout
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithSink 額外的輸出，例如 kafka log writer
func WithSink(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.extras = append(o.extras, w)
		}
	}
}

// New 建立 zerolog logger
// format: console | json
func New(moduler, level, format string, opts ...Option) zerolog.Logger {
	o := &options{out: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	var main io.Writer = o.out
	if strings.EqualFold(format, "console") {
		main = zerolog.ConsoleWriter{Out: o.out, TimeFormat: time.RFC3339}
	}

	var w io.Writer = main
	if len(o.extras) > 0 {
		w = zerolog.MultiLevelWriter(append([]io.Writer{main}, o.extras...)...)
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("moduler", moduler).
		Logger()
}

// ParseLevel 無法解析時使用 info
func ParseLevel(level string) zerolog.Level {
	lv, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lv
}

// Nop 測試用
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
