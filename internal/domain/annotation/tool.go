// Package annotation derives a repertoire's sequence count from the output
// files its annotation tool left on disk.
package annotation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Tool is one of the supported annotation tools. The set is closed: the
// only implementations are VQuest, IgBLAST and MiXCR.
type Tool interface {
	// Name is the canonical tag of the tool.
	Name() string
	// Eligible reports whether a declared file name is output of this tool.
	Eligible(name string) bool

	// requiresDeclaredFiles marks tools for which a missing file list
	// stops processing instead of yielding the no-format sentinel.
	requiresDeclaredFiles() bool
	// contribution returns the number of sequences in one present file.
	contribution(ctx context.Context, c *Counter, dir, name string) (int64, error)
}

var (
	// VQuest counts IMGT/HighV-QUEST .txz archives through their
	// 1_Summary.txt member.
	VQuest Tool = vquest{}
	// IgBLAST counts AIRR TSV and fmt19 tables.
	IgBLAST Tool = igblast{}
	// MiXCR counts plain-text clone exports.
	MiXCR Tool = mixcr{}
)

// ParseTool maps a curator or command-line tag to its Tool. Matching is
// case-insensitive and accepts the tags curators use in the
// ir_rearrangement_tool column.
func ParseTool(tag string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "vquest", "imgt", "imgt high-vquest", "imgt/highv-quest", "highv-quest":
		return VQuest, nil
	case "igblast", "igblastn":
		return IgBLAST, nil
	case "mixcr":
		return MiXCR, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tag)
	}
}

type vquest struct{}

func (vquest) Name() string                { return "vquest" }
func (vquest) requiresDeclaredFiles() bool { return false }

func (vquest) Eligible(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txz")
}

func (vquest) contribution(ctx context.Context, c *Counter, dir, name string) (int64, error) {
	target := filepath.Join(dir, stem(name))
	if err := extractTarXZ(ctx, filepath.Join(dir, name), target); err != nil {
		return 0, err
	}
	summary, err := findSummary(target, c.summaryName)
	if err != nil {
		return 0, err
	}
	return dataLines(summary)
}

type igblast struct{}

func (igblast) Name() string                { return "igblast" }
func (igblast) requiresDeclaredFiles() bool { return false }

func (igblast) Eligible(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".fmt19" || ext == ".tsv"
}

func (igblast) contribution(_ context.Context, _ *Counter, dir, name string) (int64, error) {
	return dataLines(filepath.Join(dir, name))
}

type mixcr struct{}

func (mixcr) Name() string                { return "mixcr" }
func (mixcr) requiresDeclaredFiles() bool { return true }

func (mixcr) Eligible(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}

func (mixcr) contribution(_ context.Context, _ *Counter, dir, name string) (int64, error) {
	return dataLines(filepath.Join(dir, name))
}

// stem is the file name up to its first dot; archives are unpacked into a
// sibling directory of that name.
func stem(name string) string {
	base := filepath.Base(name)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}
