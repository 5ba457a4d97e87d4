// Package metadata loads the curator metadata table from workbooks,
// delimited text or a repository-style JSON document.
package metadata

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/airrsanity/internal/domain/table"
)

// StudyColumn holds the study identifier in metadata.
const StudyColumn = "study_id"

// RepertoireKey is the top-level array of a repository-style document.
const RepertoireKey = "Repertoire"

// Load reads the metadata table at path. The source kind follows the
// extension: .xlsx workbooks, .csv and .tsv text, .json documents, and
// http(s) URLs serving JSON. The result is normalised.
func Load(ctx context.Context, path string, opts ...Option) (*table.Table, error) {
	o := options{sheet: defaultSheet, headerRow: defaultHeaderRow, client: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		t   *table.Table
		err error
	)
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		t, err = loadRemote(ctx, o.client, path)
	case strings.HasSuffix(lower, ".xlsx"):
		t, err = loadWorkbook(path, o.sheet, o.headerRow)
	case strings.HasSuffix(lower, ".csv"):
		t, err = loadDelimited(path, ',')
	case strings.HasSuffix(lower, ".tsv"):
		t, err = loadDelimited(path, '\t')
	case strings.HasSuffix(lower, ".json"):
		t, err = loadJSONFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return Normalize(t), nil
}

func loadWorkbook(path, sheet string, headerRow int) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	name, ok := pickSheet(f.GetSheetList(), sheet)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrSheetMissing, sheet, path)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %s: %w", ErrRead, name, err)
	}
	if len(rows) <= headerRow {
		return nil, fmt.Errorf("%w: %s has %d rows", ErrHeaderMissing, name, len(rows))
	}
	return fromRecords(rows[headerRow], rows[headerRow+1:]), nil
}

// pickSheet prefers an exact name, then a case-insensitive match.
func pickSheet(sheets []string, want string) (string, bool) {
	for _, s := range sheets {
		if s == want {
			return s, true
		}
	}
	for _, s := range sheets {
		if strings.EqualFold(s, want) {
			return s, true
		}
	}
	return "", false
}

func loadDelimited(path string, comma rune) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrHeaderMissing, path)
	}
	return fromRecords(records[0], records[1:]), nil
}

// fromRecords builds a table from a header and text rows. Short rows are
// padded with nulls and cells beyond the header are dropped.
func fromRecords(header []string, rows [][]string) *table.Table {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	t := table.New(names...)
	for _, rec := range rows {
		if blank(rec) {
			continue
		}
		cells := make(map[string]table.Value, len(names))
		for i, name := range names {
			if _, dup := cells[name]; dup {
				continue
			}
			v := table.Null()
			if i < len(rec) {
				v = table.Infer(rec[i])
			}
			cells[name] = v
		}
		t.AppendRow(cells)
	}
	return t
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func loadRemote(ctx context.Context, client *http.Client, url string) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	req.Header.Set("Accept", "application/json")
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrRead, url, res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return fromDocument(body)
}

func loadJSONFile(path string) (*table.Table, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return fromDocument(body)
}

func fromDocument(body []byte) (*table.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	recs, ok := doc[RepertoireKey].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: document has no %s array", ErrRead, RepertoireKey)
	}
	return Flatten(recs), nil
}
