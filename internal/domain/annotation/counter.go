package annotation

import (
	"context"
	"fmt"

	"github.com/okian/airrsanity/internal/domain/reconcile"
)

const defaultSummaryName = "1_Summary.txt"

// Result is the outcome of counting one repertoire's annotation files.
// Found and NotFound partition the eligible declared files.
type Result struct {
	Files reconcile.Files
	Count reconcile.Count
}

// Counter counts annotation sequences on disk. It keeps no state between
// calls; every call owns its file partition.
type Counter struct {
	summaryName string
}

// NewCounter creates a Counter.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{summaryName: defaultSummaryName}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Count derives the sequence count of one repertoire from the files it
// declares in dir.
//
// Declared files the tool does not produce are ignored. When none of the
// declared files is eligible the count is the no-format sentinel, whatever
// is on disk. Eligible files missing from dir are listed in NotFound and
// contribute nothing. A file that is present but cannot be counted fails
// the call with ErrCountFailed; the partial Result is still returned.
//
// MiXCR requires a declared list: without one Count returns
// ErrNoDeclaredFiles, which callers must treat as a hard stop.
func (c *Counter) Count(ctx context.Context, tool Tool, files FileList, dir string) (Result, error) {
	res := Result{Files: reconcile.Files{Declared: append([]string(nil), files.Names...)}}
	if tool == nil {
		return res, ErrUnknownTool
	}
	if !files.Declared {
		if tool.requiresDeclaredFiles() {
			return res, fmt.Errorf("%s: %w", tool.Name(), ErrNoDeclaredFiles)
		}
		res.Count = reconcile.NoFormatMatch()
		return res, nil
	}

	var eligible []string
	for _, name := range files.Names {
		if tool.Eligible(name) {
			eligible = append(eligible, name)
		}
	}
	if len(eligible) == 0 {
		res.Count = reconcile.NoFormatMatch()
		return res, nil
	}

	present, err := listDir(dir)
	if err != nil {
		res.Count = reconcile.NoFormatMatch()
		return res, fmt.Errorf("%w: %w", ErrCountFailed, err)
	}

	total := reconcile.Known(0)
	for _, name := range eligible {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, ok := present[name]; !ok {
			res.Files.NotFound = append(res.Files.NotFound, name)
			continue
		}
		res.Files.Found = append(res.Files.Found, name)
		n, err := tool.contribution(ctx, c, dir, name)
		if err != nil {
			res.Count = total
			return res, fmt.Errorf("%w: %s: %w", ErrCountFailed, name, err)
		}
		total = total.Add(n)
	}
	res.Count = total
	return res, nil
}
