package sequence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySequence means no title matched any candidate, or there were no
	// titles at all. Callers fall back to discovery order.
	ErrEmptySequence = errors.New("empty sequence")
	// ErrUnknownPolicy is returned for a policy other than strict/append-extra.
	ErrUnknownPolicy = errors.New("unknown policy")
)

// Status classifies one outline title.
type Status string

const (
	StatusFound   Status = "found"
	StatusMissing Status = "missing"
)

// Item is one entry of a reconciled sequence. File is set when Status is
// found; Title always holds the outline title it came from.
type Item struct {
	Status Status
	Title  string
	File   CandidateFile
}

// Result is the outcome of reconciling an outline with a candidate set.
type Result struct {
	Items   []Item
	Missing []string
	Extra   []CandidateFile
}

// Reconcile matches every title, in order, against idx. Candidates no title
// consumed are returned as Extra in index order.
//
// When titles is empty or nothing matched, the result is still returned (so
// missing titles can be reported) together with ErrEmptySequence.
func Reconcile(titles []string, idx *Index) (*Result, error) {
	res := &Result{
		Items:   make([]Item, 0, len(titles)),
		Missing: []string{},
		Extra:   []CandidateFile{},
	}
	consumed := make(map[string]bool, idx.Len())
	found := 0
	for _, title := range titles {
		f, ok := idx.Match(title)
		if !ok {
			res.Items = append(res.Items, Item{Status: StatusMissing, Title: title})
			res.Missing = append(res.Missing, title)
			continue
		}
		consumed[f.Path] = true
		found++
		res.Items = append(res.Items, Item{Status: StatusFound, Title: title, File: f})
	}
	for _, f := range idx.files {
		if !consumed[f.Path] {
			res.Extra = append(res.Extra, f)
		}
	}
	if found == 0 {
		return res, ErrEmptySequence
	}
	return res, nil
}

// Counts returns the number of found items, missing titles and extra files.
func (r *Result) Counts() (found, missing, extra int) {
	return len(r.Items) - len(r.Missing), len(r.Missing), len(r.Extra)
}

// Found returns the matched files in sequence order.
func (r *Result) Found() []CandidateFile {
	out := make([]CandidateFile, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Status == StatusFound {
			out = append(out, it.File)
		}
	}
	return out
}

// Policy decides what happens to extra files when building a working order.
type Policy string

const (
	// PolicyStrict keeps only files matched by the outline.
	PolicyStrict Policy = "strict"
	// PolicyAppendExtra appends unmatched files after the matched ones.
	PolicyAppendExtra Policy = "append-extra"
)

// ParsePolicy accepts the policy names used on the command line and in
// config files.
func ParsePolicy(s string) (Policy, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "strict", "":
		return PolicyStrict, nil
	case "append-extra", "append", "append-others", "append-extras":
		return PolicyAppendExtra, nil
	default:
		return "", fmt.Errorf("%w: %q (expected strict or append-extra)", ErrUnknownPolicy, s)
	}
}

// WorkingOrder builds the merge plan for policy. The result is a fresh slice
// the caller owns.
func (r *Result) WorkingOrder(policy Policy) ([]CandidateFile, error) {
	switch policy {
	case PolicyStrict:
		return r.Found(), nil
	case PolicyAppendExtra:
		order := r.Found()
		return append(order, r.Extra...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}
