// Package patch implements C2, the Patch Projector: parsing a diff
// file into per-file changed-line sets, mapping those lines onto the
// before/after IR by line scope, and diffing matched basic blocks and
// instructions.
package patch

import (
	"sort"

	"patchspec/internal/errors"
)

// LineKind classifies one changed source line from the diff: Added when
// it only exists in the post-patch file, Removed when it only exists in
// the pre-patch file. There is no separate kind for a file:line listed
// on both sides; such a line is recorded once as Added and once as
// Removed.
type LineKind int

const (
	Added LineKind = iota
	Removed
)

type Line struct {
	File string
	Line int
	Kind LineKind
}

// FileChanges is every changed line for one source file, split by
// kind and kept sorted for deterministic iteration.
type FileChanges struct {
	File    string
	Added   []int
	Removed []int
}

// Patch is the parsed diff: the complete set of changed lines per
// source file, regardless of which grammar produced it.
type Patch struct {
	Files map[string]*FileChanges
}

func newPatch() *Patch { return &Patch{Files: make(map[string]*FileChanges)} }

func (p *Patch) add(l Line) {
	fc, ok := p.Files[l.File]
	if !ok {
		fc = &FileChanges{File: l.File}
		p.Files[l.File] = fc
	}
	switch l.Kind {
	case Added:
		fc.Added = append(fc.Added, l.Line)
	case Removed:
		fc.Removed = append(fc.Removed, l.Line)
	}
}

func (p *Patch) sortLines() {
	for _, fc := range p.Files {
		sort.Ints(fc.Added)
		sort.Ints(fc.Removed)
	}
}

// IsEmpty reports whether the patch touched no lines at all, the
// ErrorEmptyPatch condition.
func (p *Patch) IsEmpty() bool {
	for _, fc := range p.Files {
		if len(fc.Added) > 0 || len(fc.Removed) > 0 {
			return false
		}
	}
	return true
}

// Touches reports whether any added/removed line for file falls
// within [start, end] inclusive.
func (fc *FileChanges) Touches(start, end int) bool {
	for _, l := range fc.Added {
		if l >= start && l <= end {
			return true
		}
	}
	for _, l := range fc.Removed {
		if l >= start && l <= end {
			return true
		}
	}
	return false
}

// Parse parses patch file content. It first tries the native
// line-oriented grammar of spec.md §6 (`+file:line` / `-file:line`);
// if that grammar rejects the input outright it falls back to
// unified-diff parsing so a real `git diff` can be fed in directly.
func Parse(filename, content string) (*Patch, error) {
	p, err := parseNative(filename, content)
	if err == nil {
		p.sortLines()
		return p, nil
	}

	unified, uerr := parseUnified(content)
	if uerr != nil {
		return nil, errors.NewDiagError(
			errors.KindPatchMalformed,
			"patch file matches neither the native +file:line grammar nor a unified diff",
			errors.Position{Filename: filename},
		).WithNote(err.Error()).Build()
	}
	unified.sortLines()
	return unified, nil
}
