package app

import (
	"context"
	"time"

	"github.com/okian/airrsanity/internal/adapters/airrapi"
	"github.com/okian/airrsanity/internal/adapters/report"
	"github.com/okian/airrsanity/internal/domain/annotation"
	"github.com/okian/airrsanity/pkg/logger"
)

// QueryExecutor runs queries against the repository.
type QueryExecutor interface {
	Execute(ctx context.Context, url string, query any, opts airrapi.ExecOptions) (airrapi.Response, error)
}

// AnnotationCounter counts the annotation sequences of one repertoire.
type AnnotationCounter interface {
	Count(ctx context.Context, tool annotation.Tool, files annotation.FileList, dir string) (annotation.Result, error)
}

// ReportWriter stores report sheets and raw documents.
type ReportWriter interface {
	Write(ctx context.Context, name string, sheet report.Sheet) (string, error)
	WriteRaw(ctx context.Context, name, ext string, data []byte) (string, error)
}

// Limiter paces remote calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Option applies a configuration option to the Auditor.
type Option func(*Auditor)

// WithLogger sets a custom logger for the auditor.
func WithLogger(l logger.Logger) Option {
	return func(a *Auditor) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithQueryExecutor replaces the repository client built from the config.
func WithQueryExecutor(q QueryExecutor) Option {
	return func(a *Auditor) {
		if q != nil {
			a.executor = q
		}
	}
}

// WithCounter replaces the annotation counter.
func WithCounter(c AnnotationCounter) Option {
	return func(a *Auditor) {
		if c != nil {
			a.counter = c
		}
	}
}

// WithReportWriter replaces the report writer built from the config.
func WithReportWriter(w ReportWriter) Option {
	return func(a *Auditor) {
		if w != nil {
			a.writer = w
		}
	}
}

// WithLimiter replaces the pacing limiter built from the config.
func WithLimiter(l Limiter) Option {
	return func(a *Auditor) {
		if l != nil {
			a.limiter = l
		}
	}
}

// WithClock sets the clock used for run timing and report dates.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) {
		if now != nil {
			a.now = now
		}
	}
}
