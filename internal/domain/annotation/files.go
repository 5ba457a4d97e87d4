package annotation

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/okian/airrsanity/internal/domain/table"
)

const (
	readBufferSize = 64 * 1024
	dirPermission  = 0750
)

// FileList is the parsed data_processing_files cell of a repertoire.
type FileList struct {
	Names []string
	// Declared is false when the cell held no text at all.
	Declared bool
}

// ParseFileList splits a comma-separated file list. Spaces anywhere in the
// cell are dropped, as are empty entries.
func ParseFileList(v table.Value) FileList {
	s, ok := v.AsString()
	if !ok {
		return FileList{}
	}
	s = strings.ReplaceAll(s, " ", "")
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n != "" {
			names = append(names, n)
		}
	}
	return FileList{Names: names, Declared: true}
}

// dataLines returns the number of lines in path minus the header line. A
// final line without a trailing newline still counts.
func dataLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		lines int64
		last  byte
		total int64
	)
	buf := make([]byte, readBufferSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyAnnotation, path)
	}
	if last != '\n' {
		lines++
	}
	return lines - 1, nil
}

// extractTarXZ unpacks an xz-compressed tar archive into target. Existing
// files are overwritten.
func extractTarXZ(ctx context.Context, archive, target string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	xr, err := xz.NewReader(bufio.NewReaderSize(f, readBufferSize))
	if err != nil {
		return fmt.Errorf("open xz stream %s: %w", archive, err)
	}
	if err := os.MkdirAll(target, dirPermission); err != nil {
		return err
	}

	tr := tar.NewReader(xr)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchive, hdr.Name)
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", archive, err)
		}

		dest, err := safeJoin(target, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, dirPermission); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(dest, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		default:
			// links and devices are never part of annotation output
		}
	}
}

func writeMember(dest string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), dirPermission); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func safeJoin(root, name string) (string, error) {
	dest := filepath.Join(root, name)
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchive, name)
	}
	return dest, nil
}

// findSummary locates the summary member, preferring the top level of the
// extraction directory.
func findSummary(root, name string) (string, error) {
	direct := filepath.Join(root, name)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrSummaryMissing, name, root)
	}
	return found, nil
}

// listDir returns the names of the entries of dir.
func listDir(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListDirectory, err)
	}
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		out[e.Name()] = struct{}{}
	}
	return out, nil
}
