package logger

import "io"

const (
	filePermission = 0600
	dirPermission  = 0750
)

type options struct {
	writer io.Writer
	json   bool
}

// Option configures Init.
type Option func(*options)

// WithWriter sends log records to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithJSON switches the handler to JSON records.
func WithJSON(enabled bool) Option {
	return func(o *options) {
		o.json = enabled
	}
}
