package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusx1211/docmerge/internal/sequence"
)

func writeFile(t *testing.T, root, rel string, size int, mtime time.Time) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func rels(t *testing.T, root string, files []sequence.CandidateFile) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func fixture(t *testing.T) string {
	root := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, root, "b.pdf", 30, base.Add(1*time.Hour))
	writeFile(t, root, "a.pdf", 10, base.Add(3*time.Hour))
	writeFile(t, root, "C.PDF", 20, base.Add(2*time.Hour))
	writeFile(t, root, "notes.txt", 5, base)
	writeFile(t, root, "sub/d.pdf", 40, base)
	writeFile(t, root, "sub/deeper/e.pdf", 1, base)
	writeFile(t, root, ".git/objects/x.pdf", 1, base)
	return root
}

func TestDiscover_Flat(t *testing.T) {
	root := fixture(t)
	files, err := Discover(Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"C.PDF", "a.pdf", "b.pdf", "notes.txt"}, rels(t, root, files))

	for _, f := range files {
		assert.Equal(t, filepath.Base(f.Path), f.Name)
	}
}

func TestDiscover_ExtensionCaseInsensitive(t *testing.T) {
	root := fixture(t)
	for _, ext := range []string{".pdf", "pdf", ".PDF"} {
		files, err := Discover(Options{Root: root, Extensions: []string{ext}})
		require.NoError(t, err)
		assert.Equal(t, []string{"C.PDF", "a.pdf", "b.pdf"}, rels(t, root, files), ext)
	}
}

func TestDiscover_Recursive(t *testing.T) {
	root := fixture(t)
	files, err := Discover(Options{Root: root, Recursive: true, Extensions: []string{".pdf"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C.PDF", "a.pdf", "b.pdf", "sub/d.pdf", "sub/deeper/e.pdf"}, rels(t, root, files))
}

func TestDiscover_SortKeys(t *testing.T) {
	root := fixture(t)
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByName, []string{"C.PDF", "a.pdf", "b.pdf"}},
		{SortByDate, []string{"b.pdf", "C.PDF", "a.pdf"}},
		{SortBySize, []string{"a.pdf", "C.PDF", "b.pdf"}},
	}
	for _, tt := range tests {
		files, err := Discover(Options{Root: root, SortBy: tt.key, Extensions: []string{"pdf"}})
		require.NoError(t, err)
		assert.Equal(t, tt.want, rels(t, root, files), string(tt.key))
	}
}

func TestDiscover_TiesBrokenByPath(t *testing.T) {
	root := t.TempDir()
	same := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, n := range []string{"z.pdf", "m.pdf", "a.pdf"} {
		writeFile(t, root, n, 7, same)
	}
	for _, key := range []SortKey{SortByDate, SortBySize} {
		files, err := Discover(Options{Root: root, SortBy: key})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.pdf", "m.pdf", "z.pdf"}, rels(t, root, files))
	}
}

func TestDiscover_UnknownSortKey(t *testing.T) {
	_, err := Discover(Options{Root: t.TempDir(), SortBy: "colour"})
	assert.ErrorIs(t, err, ErrUnknownSortKey)
}

func TestDiscover_IncludeExclude(t *testing.T) {
	root := fixture(t)

	files, err := Discover(Options{Root: root, Recursive: true, Include: []string{"sub/**/*.pdf"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/d.pdf", "sub/deeper/e.pdf"}, rels(t, root, files))

	files, err = Discover(Options{Root: root, Recursive: true, Extensions: []string{".pdf"}, Exclude: []string{"sub/deeper/"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C.PDF", "a.pdf", "b.pdf", "sub/d.pdf"}, rels(t, root, files))

	files, err = Discover(Options{Root: root, Recursive: true, Extensions: []string{".pdf"}, Exclude: []string{"b.pdf", "**/e.pdf"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C.PDF", "a.pdf", "sub/d.pdf"}, rels(t, root, files))
}

func TestDiscover_GitIgnore(t *testing.T) {
	root := fixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("a.pdf\nsub/deeper/\n"), 0o644))

	files, err := Discover(Options{Root: root, Recursive: true, Extensions: []string{".pdf"}, RespectGitIgnore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"C.PDF", "b.pdf", "sub/d.pdf"}, rels(t, root, files))

	files, err = Discover(Options{Root: root, Recursive: true, Extensions: []string{".pdf"}})
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestDiscover_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", 1, time.Time{})
	_, err := Discover(Options{Root: filepath.Join(root, "a.pdf")})
	assert.Error(t, err)

	_, err = Discover(Options{Root: filepath.Join(root, "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortByName, k)

	k, err = ParseSortKey(" Date ")
	require.NoError(t, err)
	assert.Equal(t, SortByDate, k)

	_, err = ParseSortKey("size-desc")
	assert.ErrorIs(t, err, ErrUnknownSortKey)
}
