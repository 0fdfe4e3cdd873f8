package textcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusx1211/docmerge/internal/merge"
	"github.com/agusx1211/docmerge/internal/sequence"
)

func write(t *testing.T, dir, name string, content []byte) sequence.CandidateFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return sequence.NewCandidate(path)
}

func TestConcatenator_Output(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "intro.md", []byte("# Intro\nhello\n"))
	b := write(t, dir, "body.md", []byte("body"))

	c := New()
	require.NoError(t, c.Append(a))
	require.NoError(t, c.Append(b))
	require.NoError(t, c.EmbedMetadata(map[string]string{
		merge.MetaSourceFiles: "intro.md; body.md",
		merge.MetaCreator:     "docmerge",
	}))

	target := filepath.Join(dir, "out", "book.md")
	require.NoError(t, c.Finalize(target))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	want := strings.Join([]string{
		"- Total files: 2",
		"- Total size: 18 bytes",
		"- Source files: intro.md; body.md",
		"- Creator: docmerge",
		"",
		"- path: intro.md",
		"- content:",
		"```",
		"# Intro",
		"hello",
		"```",
		"",
		"- path: body.md",
		"- content:",
		"```",
		"body",
		"```",
		"",
	}, "\n")
	assert.Equal(t, want, string(got))

	own, err := IsOwnOutput(target)
	require.NoError(t, err)
	assert.True(t, own)

	own, err = IsOwnOutput(a.Path)
	require.NoError(t, err)
	assert.False(t, own)
}

func TestConcatenator_BinaryRejected(t *testing.T) {
	dir := t.TempDir()
	bin := write(t, dir, "blob.dat", []byte{0x00, 0x01, 0xff, 0xfe, 0x00, 0x00})
	pdf := write(t, dir, "doc.pdf", []byte("%PDF-1.4\n"))

	c := New()
	assert.ErrorIs(t, c.Append(bin), ErrBinaryFile)
	assert.ErrorIs(t, c.Append(pdf), ErrBinaryFile)
	assert.ErrorIs(t, c.Append(sequence.NewCandidate(filepath.Join(dir, "missing.md"))), os.ErrNotExist)

	assert.Error(t, c.Finalize(filepath.Join(dir, "out.md")))
	_, err := os.Stat(filepath.Join(dir, "out.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConcatenator_Dedup(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.txt", []byte("same"))
	b := write(t, dir, "b.txt", []byte("same"))

	c := New()
	c.Dedup = true
	require.NoError(t, c.Append(a))
	require.NoError(t, c.Append(b))
	target := filepath.Join(dir, "out.txt")
	require.NoError(t, c.Finalize(target))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(got), "- path: b.txt\n- content: Contents are identical to a.txt\n")
	assert.Equal(t, 1, strings.Count(string(got), "```\nsame\n```"))
}

func TestEmbedMetadata_RejectsMultiline(t *testing.T) {
	c := New()
	assert.Error(t, c.EmbedMetadata(map[string]string{"Title": "a\nb"}))
	assert.Error(t, c.EmbedMetadata(map[string]string{"a:b": "x"}))
}
