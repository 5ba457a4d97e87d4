package annotation

// Option applies a configuration option to the Counter.
type Option func(*Counter)

// WithSummaryName sets the archive member counted for VQuest output.
func WithSummaryName(name string) Option {
	return func(c *Counter) {
		if name != "" {
			c.summaryName = name
		}
	}
}
