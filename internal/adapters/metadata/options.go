package metadata

import "net/http"

const (
	defaultSheet     = "Metadata"
	defaultHeaderRow = 1
)

type options struct {
	sheet     string
	headerRow int
	client    *http.Client
}

// Option configures Load.
type Option func(*options)

// WithSheet names the workbook sheet holding the metadata.
func WithSheet(name string) Option {
	return func(o *options) {
		if name != "" {
			o.sheet = name
		}
	}
}

// WithHeaderRow sets the zero-based row of a workbook that holds the
// column names. Rows above it are ignored.
func WithHeaderRow(row int) Option {
	return func(o *options) {
		if row >= 0 {
			o.headerRow = row
		}
	}
}

// WithHTTPClient sets the client used for remote JSON metadata.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}
