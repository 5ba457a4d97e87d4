// Package report writes audit result tables to the report directory.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/airrsanity/internal/domain/table"
)

// Format is a report file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	dirPermission  = 0o750
	filePermission = 0o600
	dateLayout     = "2006-01-02"
	sheetName      = "Report"
)

// Sentinel kinds for report errors.
var (
	ErrFormat = errors.New("unknown report format")
	ErrWrite  = errors.New("write report")
)

// Sheet is one report table.
type Sheet struct {
	Header []string
	Rows   [][]table.Value
}

// Append adds a row.
func (s *Sheet) Append(cells ...table.Value) {
	s.Rows = append(s.Rows, cells)
}

// Writer writes named reports for one study.
type Writer struct {
	dir    string
	study  string
	format Format
	now    func() time.Time
}

// NewWriter creates a Writer for reports of study under dir.
func NewWriter(dir, study string, opts ...Option) (*Writer, error) {
	w := &Writer{dir: dir, study: study, format: FormatCSV, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	switch w.format {
	case FormatCSV, FormatXLSX:
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, w.format)
	}
	return w, nil
}

// Path returns the file a report called name would be written to.
func (w *Writer) Path(name, ext string) string {
	file := fmt.Sprintf("%s_%s_%s.%s", w.study, name, w.now().Format(dateLayout), ext)
	return filepath.Join(w.dir, file)
}

// Write stores sheet as report name and returns the file path.
func (w *Writer) Write(ctx context.Context, name string, sheet Sheet) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, dirPermission); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	path := w.Path(name, string(w.format))
	var err error
	if w.format == FormatXLSX {
		err = writeXLSX(path, sheet)
	} else {
		err = writeCSV(path, sheet)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return path, nil
}

// WriteRaw stores a verbatim document, such as a saved query response.
func (w *Writer) WriteRaw(ctx context.Context, name, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, dirPermission); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	path := w.Path(name, ext)
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return path, nil
}

func writeCSV(path string, sheet Sheet) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermission)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(sheet.Header); err != nil {
		return err
	}
	rec := make([]string, len(sheet.Header))
	for _, row := range sheet.Rows {
		rec = rec[:0]
		for _, v := range row {
			rec = append(rec, v.String())
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(path string, sheet Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}
	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for r, row := range sheet.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func cellValue(v table.Value) any {
	switch v.Kind() {
	case table.KindNull:
		return nil
	case table.KindList, table.KindMap:
		return v.String()
	case table.KindFloat:
		if v.IsNullLike() {
			return v.String()
		}
	}
	return v.Interface()
}
