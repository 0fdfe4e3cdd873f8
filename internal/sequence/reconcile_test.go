package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(paths ...string) []CandidateFile {
	out := make([]CandidateFile, len(paths))
	for i, p := range paths {
		out[i] = NewCandidate(p)
	}
	return out
}

func TestReconcile_Example(t *testing.T) {
	idx := NewIndex(candidates("/docs/Results.pdf", "/docs/Intro.pdf", "/docs/Appendix.pdf"), "")

	res, err := Reconcile([]string{"Intro", "Methods", "Results"}, idx)
	require.NoError(t, err)

	require.Len(t, res.Items, 3)
	assert.Equal(t, Item{Status: StatusFound, Title: "Intro", File: NewCandidate("/docs/Intro.pdf")}, res.Items[0])
	assert.Equal(t, Item{Status: StatusMissing, Title: "Methods"}, res.Items[1])
	assert.Equal(t, Item{Status: StatusFound, Title: "Results", File: NewCandidate("/docs/Results.pdf")}, res.Items[2])
	assert.Equal(t, []string{"Methods"}, res.Missing)
	assert.Equal(t, candidates("/docs/Appendix.pdf"), res.Extra)

	strict, err := res.WorkingOrder(PolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro.pdf", "Results.pdf"}, Names(strict))

	appended, err := res.WorkingOrder(PolicyAppendExtra)
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro.pdf", "Results.pdf", "Appendix.pdf"}, Names(appended))
}

func TestReconcile_EmptyTitles(t *testing.T) {
	idx := NewIndex(candidates("a.pdf"), "")
	res, err := Reconcile(nil, idx)
	assert.ErrorIs(t, err, ErrEmptySequence)
	require.NotNil(t, res)
	assert.Empty(t, res.Items)
	assert.Equal(t, candidates("a.pdf"), res.Extra)
}

func TestReconcile_NothingMatched(t *testing.T) {
	idx := NewIndex(candidates("a.pdf", "b.pdf"), "")
	res, err := Reconcile([]string{"x", "y"}, idx)
	assert.ErrorIs(t, err, ErrEmptySequence)
	assert.Equal(t, []string{"x", "y"}, res.Missing)
	assert.Len(t, res.Extra, 2)
}

func TestMatch_ProbeOrder(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		title string
		want  string
		ok    bool
	}{
		{"bare stem", []string{"Intro"}, "Intro", "Intro", true},
		{"lowercase ext", []string{"Intro.pdf"}, "Intro", "Intro.pdf", true},
		{"uppercase ext", []string{"Intro.PDF"}, "Intro", "Intro.PDF", true},
		{"title carries ext", []string{"Intro.pdf"}, "Intro.pdf", "Intro.pdf", true},
		{"title carries other ext", []string{"Intro.pdf"}, "Intro.docx", "Intro.pdf", true},
		{"stem beats ext lookup", []string{"Intro.pdf", "Intro"}, "Intro", "Intro", true},
		{"lowercase beats uppercase", []string{"Intro.PDF", "Intro.pdf"}, "Intro", "Intro.pdf", true},
		{"mixed case ext not tried", []string{"Intro.Pdf"}, "Intro", "", false},
		{"case sensitive stem", []string{"intro.pdf"}, "Intro", "", false},
		{"no match", []string{"Other.pdf"}, "Intro", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIndex(candidates(tt.files...), "")
			got, ok := idx.Match(tt.title)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestMatch_CustomExt(t *testing.T) {
	idx := NewIndex(candidates("notes/Intro.md", "notes/Body.MD"), "md")
	assert.Equal(t, ".md", idx.Ext())

	got, ok := idx.Match("Intro")
	require.True(t, ok)
	assert.Equal(t, "notes/Intro.md", got.Path)

	got, ok = idx.Match("Body")
	require.True(t, ok)
	assert.Equal(t, "notes/Body.MD", got.Path)
}

func TestMatch_FirstSeenWinsOnCollision(t *testing.T) {
	idx := NewIndex(candidates("/a/Intro.pdf", "/b/Intro.pdf"), "")
	got, ok := idx.Match("Intro")
	require.True(t, ok)
	assert.Equal(t, "/a/Intro.pdf", got.Path)

	res, err := Reconcile([]string{"Intro"}, idx)
	require.NoError(t, err)
	assert.Equal(t, candidates("/b/Intro.pdf"), res.Extra)
}

func TestStripExt(t *testing.T) {
	assert.Equal(t, "Intro", stripExt("Intro.pdf"))
	assert.Equal(t, "Intro.v2", stripExt("Intro.v2.pdf"))
	assert.Equal(t, ".hidden", stripExt(".hidden"))
	assert.Equal(t, "dir/.hidden", stripExt("dir/.hidden"))
	assert.Equal(t, "Chapter 1", stripExt("Chapter 1"))
}

func TestReconcile_PartitionsCandidates(t *testing.T) {
	files := candidates("/x/A.pdf", "/x/B.pdf", "/y/A.pdf", "/x/C.PDF", "/x/D.pdf")
	titleSets := [][]string{
		{},
		{"A"},
		{"A", "A", "B"},
		{"C", "zzz", "D.pdf"},
		{"A", "B", "C", "D", "E"},
	}
	for _, titles := range titleSets {
		idx := NewIndex(files, "")
		res, _ := Reconcile(titles, idx)

		matched := map[string]int{}
		for _, it := range res.Items {
			if it.Status == StatusFound {
				matched[it.File.Path]++
			}
		}
		extra := map[string]bool{}
		for _, f := range res.Extra {
			extra[f.Path] = true
		}
		for _, f := range files {
			_, isMatched := matched[f.Path]
			assert.True(t, isMatched != extra[f.Path], "titles %v: %s must be matched xor extra", titles, f.Path)
		}
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	files := candidates("/x/B.pdf", "/x/A.pdf", "/x/C.pdf", "/y/A.pdf")
	titles := []string{"A", "Missing", "C"}

	first, err := Reconcile(titles, NewIndex(files, ""))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Reconcile(titles, NewIndex(files, ""))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestWorkingOrder_Lengths(t *testing.T) {
	idx := NewIndex(candidates("A.pdf", "B.pdf", "C.pdf", "D.pdf"), "")
	res, err := Reconcile([]string{"B", "nope", "A", "B"}, idx)
	require.NoError(t, err)

	found, missing, extra := res.Counts()
	assert.Equal(t, 3, found)
	assert.Equal(t, 1, missing)
	assert.Equal(t, 2, extra)

	strict, err := res.WorkingOrder(PolicyStrict)
	require.NoError(t, err)
	assert.Len(t, strict, found)
	assert.Equal(t, []string{"B.pdf", "A.pdf", "B.pdf"}, Names(strict))

	appended, err := res.WorkingOrder(PolicyAppendExtra)
	require.NoError(t, err)
	assert.Len(t, appended, found+extra)
	assert.Equal(t, []string{"B.pdf", "A.pdf", "B.pdf", "C.pdf", "D.pdf"}, Names(appended))
}

func TestWorkingOrder_UnknownPolicy(t *testing.T) {
	res := &Result{}
	order, err := res.WorkingOrder(Policy("loose"))
	assert.ErrorIs(t, err, ErrUnknownPolicy)
	assert.Nil(t, order)
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"strict":        PolicyStrict,
		"STRICT":        PolicyStrict,
		"":              PolicyStrict,
		"append-extra":  PolicyAppendExtra,
		"append":        PolicyAppendExtra,
		"append-others": PolicyAppendExtra,
	}
	for in, want := range cases {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePolicy("bogus")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestNewIndex_SkipsRepeatedPaths(t *testing.T) {
	idx := NewIndex(candidates("a.pdf", "a.pdf", "b.pdf"), "")
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, Names(idx.Files()))
}
