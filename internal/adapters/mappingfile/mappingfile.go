// Package mappingfile reads the tab-separated field mapping table.
package mappingfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/airrsanity/internal/domain/mapping"
)

// Column names of the mapping table.
const (
	ColumnAPI     = "ir_adc_api_response"
	ColumnCurator = "ir_curator"
	ColumnType    = "airr_type"
)

// Sentinel kinds for mapping file errors.
var (
	ErrRead          = errors.New("read mapping file")
	ErrMissingColumn = errors.New("mapping file column missing")
)

// File is a loaded mapping table.
type File struct {
	Entries []mapping.Entry
	// Skipped counts lines that could not be parsed.
	Skipped int
}

// Load reads path. Lines that do not parse are skipped and counted.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a mapping table from r.
func Read(r io.Reader) (File, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return File{}, fmt.Errorf("%w: header: %w", ErrRead, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{ColumnAPI, ColumnCurator, ColumnType} {
		if _, ok := cols[want]; !ok {
			return File{}, fmt.Errorf("%w: %s", ErrMissingColumn, want)
		}
	}

	var out File
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			out.Skipped++
			continue
		}
		if err != nil {
			return out, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if len(rec) > len(header) {
			out.Skipped++
			continue
		}
		out.Entries = append(out.Entries, entry(rec, cols))
	}
	return out, nil
}

func entry(rec []string, cols map[string]int) mapping.Entry {
	cell := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	raw := cell(ColumnType)
	typ, ok := mapping.ParseDeclaredType(raw)
	if !ok {
		typ = mapping.TypeNone
	}
	return mapping.Entry{
		APIField:     cell(ColumnAPI),
		CuratorField: cell(ColumnCurator),
		Type:         typ,
		RawType:      raw,
	}
}
