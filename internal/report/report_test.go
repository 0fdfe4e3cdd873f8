package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusx1211/docmerge/internal/merge"
	"github.com/agusx1211/docmerge/internal/sequence"
)

func plain(sb *strings.Builder) *Printer {
	return &Printer{W: sb, Styles: PlainStyles()}
}

func TestReconciliation(t *testing.T) {
	files := []sequence.CandidateFile{
		sequence.NewCandidate("/d/Intro.pdf"),
		sequence.NewCandidate("/d/Ch1.pdf"),
		sequence.NewCandidate("/d/Notes.pdf"),
	}
	res, err := sequence.Reconcile([]string{"Intro", "Ch1", "Ch2"}, sequence.NewIndex(files, ".pdf"))
	require.NoError(t, err)

	var sb strings.Builder
	plain(&sb).Reconciliation(res)
	assert.Equal(t, strings.Join([]string{
		"Sequence: 2 found, 1 missing, 1 extra",
		"  ✓ 1. Intro → Intro.pdf",
		"  ✓ 2. Ch1 → Ch1.pdf",
		"  ✗ 3. Ch2 (missing)",
		"Not in the outline:",
		"  + Notes.pdf",
		"",
	}, "\n"), sb.String())
}

func TestMerge(t *testing.T) {
	a := sequence.NewCandidate("/d/a.pdf")
	b := sequence.NewCandidate("/d/b.pdf")
	out := &merge.Outcome{
		Target: "/d/merged.pdf",
		Items: []merge.ItemResult{
			{File: a},
			{File: b, Err: &merge.AppendError{File: b, Reason: errors.New("encrypted")}},
		},
	}

	var sb strings.Builder
	plain(&sb).Merge(out)
	assert.Equal(t, "  ✓ a.pdf\n  ✗ b.pdf encrypted\nMerged 1 of 2 files into /d/merged.pdf (1 failed)\n", sb.String())
}

func TestListing(t *testing.T) {
	files := []sequence.CandidateFile{
		{Path: "/d/a.pdf", Name: "a.pdf", Size: 512},
		{Path: "/d/b.pdf", Name: "b.pdf", Size: 3 * 1024 * 1024},
	}
	var sb strings.Builder
	plain(&sb).Listing("Working order", files)
	assert.Equal(t, "Working order (2 files)\n  1. a.pdf  512 B, -\n  2. b.pdf  3.0 MiB, -\n", sb.String())
}

func TestProgress(t *testing.T) {
	var sb strings.Builder
	progress := plain(&sb).Progress()
	progress(1, 2, sequence.NewCandidate("/d/a.pdf"))
	progress(2, 2, sequence.NewCandidate("/d/b.pdf"))
	assert.Contains(t, sb.String(), "[ 50%] 1/2 a.pdf")
	assert.Contains(t, sb.String(), "[100%] 2/2 b.pdf")
	assert.True(t, strings.HasSuffix(sb.String(), "\n"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0.0%", formatPercent(3, 0))
	assert.Equal(t, "25.0%", formatPercent(1, 4))
}

func TestTokenReport_UnknownModel(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))
	_, err := TokenReport("no-such-model", target, nil, false)
	assert.Error(t, err)
}
