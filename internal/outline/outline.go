// Package outline models a reference document's table of contents and
// flattens it into the ordered list of titles used for sequencing.
package outline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedOutline is returned when an outline contains something that
	// is neither a title nor a nested group.
	ErrMalformedOutline = errors.New("malformed outline")
	// ErrNoOutline signals that the reference document has no outline at all.
	ErrNoOutline = errors.New("no outline present")
	// ErrUnsupported is returned for reference documents no extractor reads.
	ErrUnsupported = errors.New("unsupported reference document")
)

// Node is either a Title or a Group.
type Node interface {
	outlineNode()
}

// Title is a leaf entry of the outline.
type Title string

// Group is a nested run of entries, expanded in place when flattening.
type Group []Node

func (Title) outlineNode() {}
func (Group) outlineNode() {}

// Flatten returns every title in depth-first pre-order. Nothing is dropped,
// reordered or deduplicated. On a malformed node no partial output is
// returned.
func Flatten(nodes []Node) ([]string, error) {
	titles := make([]string, 0, len(nodes))
	if err := flattenInto(&titles, nodes, nil); err != nil {
		return nil, err
	}
	return titles, nil
}

func flattenInto(dst *[]string, nodes []Node, path []int) error {
	for i, n := range nodes {
		here := append(path[:len(path):len(path)], i)
		switch v := n.(type) {
		case Title:
			*dst = append(*dst, string(v))
		case Group:
			if err := flattenInto(dst, v, here); err != nil {
				return err
			}
		case nil:
			return fmt.Errorf("%w: nil entry at %s", ErrMalformedOutline, formatPath(here))
		default:
			return fmt.Errorf("%w: unexpected %T at %s", ErrMalformedOutline, n, formatPath(here))
		}
	}
	return nil
}

// Count returns the number of titles in nodes, at any depth.
func Count(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		switch v := n.(type) {
		case Title:
			total++
		case Group:
			total += Count(v)
		}
	}
	return total
}

// Depth returns the deepest nesting level in nodes; a flat list has depth 1.
func Depth(nodes []Node) int {
	if len(nodes) == 0 {
		return 0
	}
	max := 1
	for _, n := range nodes {
		if g, ok := n.(Group); ok {
			if d := Depth(g) + 1; d > max {
				max = d
			}
		}
	}
	return max
}

func formatPath(path []int) string {
	var sb strings.Builder
	for _, i := range path {
		fmt.Fprintf(&sb, "[%d]", i)
	}
	return sb.String()
}
