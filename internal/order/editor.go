// Package order holds the user-editable working order and the selection that
// travels with it.
package order

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agusx1211/docmerge/internal/sequence"
)

// ErrInvalidSelection is returned when a selected index is out of range.
var ErrInvalidSelection = errors.New("invalid selection")

// Editor is the working order plus the set of selected positions. Every
// mutation keeps the selection attached to the same files.
type Editor struct {
	files    []sequence.CandidateFile
	selected map[int]bool
}

// New returns an Editor over a copy of files with nothing selected.
func New(files []sequence.CandidateFile) *Editor {
	return &Editor{
		files:    append([]sequence.CandidateFile(nil), files...),
		selected: map[int]bool{},
	}
}

// Len returns the length of the working order.
func (e *Editor) Len() int { return len(e.files) }

// Files returns a copy of the working order.
func (e *Editor) Files() []sequence.CandidateFile {
	return append([]sequence.CandidateFile(nil), e.files...)
}

// Selection returns the selected indices in ascending order.
func (e *Editor) Selection() []int {
	out := make([]int, 0, len(e.selected))
	for i := range e.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Select replaces the selection. Repeated indices collapse; any index out of
// range rejects the whole call.
func (e *Editor) Select(indices ...int) error {
	if err := e.check(indices); err != nil {
		return err
	}
	next := make(map[int]bool, len(indices))
	for _, i := range indices {
		next[i] = true
	}
	e.selected = next
	return nil
}

// ClearSelection deselects everything.
func (e *Editor) ClearSelection() { e.selected = map[int]bool{} }

func (e *Editor) check(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= len(e.files) {
			return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidSelection, i, len(e.files))
		}
	}
	return nil
}

// MoveUp swaps every movable selected item with its predecessor. An item at
// index 0 cannot move, and neither can an item whose predecessor is a selected
// item that did not move; a contiguous run of selected items shifts as a
// block.
func (e *Editor) MoveUp() error {
	return e.shift(-1)
}

// MoveDown is MoveUp mirrored: items are processed from the end and the last
// index is the boundary.
func (e *Editor) MoveDown() error {
	return e.shift(+1)
}

func (e *Editor) shift(dir int) error {
	sel := e.Selection()
	if err := e.check(sel); err != nil {
		return err
	}
	if len(sel) == 0 {
		return nil
	}
	if dir > 0 {
		sort.Sort(sort.Reverse(sort.IntSlice(sel)))
	}

	// Decide which items move before touching anything.
	moved := make(map[int]bool, len(sel))
	for _, i := range sel {
		j := i + dir
		if j < 0 || j >= len(e.files) {
			continue
		}
		if e.selected[j] && !moved[j] {
			continue
		}
		moved[i] = true
	}
	if len(moved) == 0 {
		return nil
	}

	perm := identity(len(e.files))
	for _, i := range sel {
		if moved[i] {
			perm[i], perm[i+dir] = perm[i+dir], perm[i]
		}
	}
	e.permute(perm)
	return nil
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// permute rearranges the order so that position k holds the item previously
// at perm[k]. The selection is remapped in the same step.
func (e *Editor) permute(perm []int) {
	files := make([]sequence.CandidateFile, len(perm))
	selected := make(map[int]bool, len(e.selected))
	for k, from := range perm {
		files[k] = e.files[from]
		if e.selected[from] {
			selected[k] = true
		}
	}
	e.files = files
	e.selected = selected
}

// Reverse reverses the working order and clears the selection.
func (e *Editor) Reverse() {
	for i, j := 0, len(e.files)-1; i < j; i, j = i+1, j-1 {
		e.files[i], e.files[j] = e.files[j], e.files[i]
	}
	e.ClearSelection()
}

// Reset replaces the working order with a fresh listing and clears the
// selection.
func (e *Editor) Reset(files []sequence.CandidateFile) {
	e.files = append([]sequence.CandidateFile(nil), files...)
	e.ClearSelection()
}

type snapshot struct {
	files    []sequence.CandidateFile
	selected map[int]bool
}

func (e *Editor) save() snapshot {
	sel := make(map[int]bool, len(e.selected))
	for k, v := range e.selected {
		sel[k] = v
	}
	return snapshot{files: e.Files(), selected: sel}
}

func (e *Editor) restore(s snapshot) {
	e.files = s.files
	e.selected = s.selected
}
