// Package sequence matches outline titles against the candidate files found on
// disk and turns the result into a working order.
package sequence

import (
	"path/filepath"
	"strings"
	"time"
)

// DefaultExt is the canonical extension tried when a title carries none.
const DefaultExt = ".pdf"

// CandidateFile is one file eligible for inclusion in a merge.
// Identity is Path; Name is only a matching key and may collide.
type CandidateFile struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// NewCandidate builds a CandidateFile whose display name is the final path
// component of path.
func NewCandidate(path string) CandidateFile {
	return CandidateFile{Path: path, Name: filepath.Base(path)}
}

// Names returns the display names of files, in order.
func Names(files []CandidateFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// Index is the candidate set: display name to file, plus the order the files
// were added in.
type Index struct {
	ext    string
	files  []CandidateFile
	byName map[string]int
}

// NewIndex builds an Index from files in discovery order. When two files share
// a display name the first one wins. Repeated paths are ignored.
func NewIndex(files []CandidateFile, ext string) *Index {
	idx := &Index{
		ext:    normalizeExt(ext),
		files:  make([]CandidateFile, 0, len(files)),
		byName: make(map[string]int, len(files)),
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		if f.Name == "" {
			f.Name = filepath.Base(f.Path)
		}
		if _, ok := idx.byName[f.Name]; !ok {
			idx.byName[f.Name] = len(idx.files)
		}
		idx.files = append(idx.files, f)
	}
	return idx
}

// Ext returns the canonical lowercase extension used when probing.
func (x *Index) Ext() string { return x.ext }

// Len returns the number of distinct candidate files.
func (x *Index) Len() int { return len(x.files) }

// Files returns a copy of the candidates in the order they were added.
func (x *Index) Files() []CandidateFile {
	return append([]CandidateFile(nil), x.files...)
}

// Match resolves title to a candidate. The title's own extension is dropped,
// then the bare stem, stem+ext and stem+EXT are tried in that order and the
// first hit wins.
func (x *Index) Match(title string) (CandidateFile, bool) {
	stem := stripExt(title)
	for _, name := range []string{stem, stem + x.ext, stem + strings.ToUpper(x.ext)} {
		if i, ok := x.byName[name]; ok {
			return x.files[i], true
		}
	}
	return CandidateFile{}, false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// stripExt removes the extension of the last path element. A name that is only
// an extension (".hidden") is kept whole.
func stripExt(title string) string {
	ext := filepath.Ext(title)
	if ext == "" {
		return title
	}
	base := title[strings.LastIndexAny(title, `/\`)+1:]
	if base == ext {
		return title
	}
	return strings.TrimSuffix(title, ext)
}
