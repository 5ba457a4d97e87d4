package report

import "time"

// Option configures a Writer.
type Option func(*Writer)

// WithFormat selects csv or xlsx output.
func WithFormat(f Format) Option {
	return func(w *Writer) {
		if f != "" {
			w.format = f
		}
	}
}

// WithClock sets the clock used for file name dates.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}
