package order

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agusx1211/docmerge/internal/sequence"
)

// ErrUnknownOp is returned by ParseOps for an operation it does not know.
var ErrUnknownOp = errors.New("unknown edit operation")

// OpKind names one editor operation.
type OpKind string

const (
	OpSelect  OpKind = "select"
	OpUp      OpKind = "up"
	OpDown    OpKind = "down"
	OpReverse OpKind = "reverse"
	OpReset   OpKind = "reset"
)

// Op is one step of an edit script. Indices are 0-based and only used by
// OpSelect.
type Op struct {
	Kind    OpKind
	Indices []int
}

func (o Op) String() string {
	if o.Kind != OpSelect {
		return string(o.Kind)
	}
	parts := make([]string, len(o.Indices))
	for i, idx := range o.Indices {
		parts[i] = strconv.Itoa(idx + 1)
	}
	return string(o.Kind) + ":" + strings.Join(parts, ",")
}

// ParseOps parses an edit script such as "select:2,3;up;up;reverse".
// Steps are separated by ';' (or newlines). Indices are 1-based, as shown to
// users, and converted to 0-based. "up:2" is shorthand for "select:2;up".
func ParseOps(script string) ([]Op, error) {
	var ops []Op
	fields := strings.FieldsFunc(script, func(r rune) bool { return r == ';' || r == '\n' })
	for _, raw := range fields {
		step := strings.TrimSpace(raw)
		if step == "" {
			continue
		}
		name, args, hasArgs := strings.Cut(step, ":")
		kind := OpKind(strings.ToLower(strings.TrimSpace(name)))
		switch kind {
		case OpSelect, OpUp, OpDown:
		case OpReverse, OpReset:
			if hasArgs {
				return nil, fmt.Errorf("%w: %q takes no arguments", ErrUnknownOp, step)
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownOp, step)
		}
		var indices []int
		if hasArgs {
			var err error
			indices, err = parseIndices(args)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelection, step, err)
			}
		}
		switch {
		case kind == OpSelect:
			ops = append(ops, Op{Kind: OpSelect, Indices: indices})
		case hasArgs:
			ops = append(ops, Op{Kind: OpSelect, Indices: indices}, Op{Kind: kind})
		default:
			ops = append(ops, Op{Kind: kind})
		}
	}
	return ops, nil
}

// parseIndices reads "1,3,5-7" into 0-based indices.
func parseIndices(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("bad index %q", part)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("bad range %q", part)
			}
		}
		if a < 1 || b < a {
			return nil, fmt.Errorf("bad index %q (indices start at 1)", part)
		}
		for i := a; i <= b; i++ {
			out = append(out, i-1)
		}
	}
	return out, nil
}

// Source supplies a fresh discovery listing for OpReset.
type Source func() ([]sequence.CandidateFile, error)

// Apply runs ops in order. It is all-or-nothing: when a step fails the editor
// is put back exactly as it was before the call.
func (e *Editor) Apply(ops []Op, reset Source) error {
	before := e.save()
	for n, op := range ops {
		if err := e.apply(op, reset); err != nil {
			e.restore(before)
			return fmt.Errorf("edit step %d (%s): %w", n+1, op, err)
		}
	}
	return nil
}

func (e *Editor) apply(op Op, reset Source) error {
	switch op.Kind {
	case OpSelect:
		return e.Select(op.Indices...)
	case OpUp:
		return e.MoveUp()
	case OpDown:
		return e.MoveDown()
	case OpReverse:
		e.Reverse()
		return nil
	case OpReset:
		if reset == nil {
			return errors.New("no listing to reset to")
		}
		files, err := reset()
		if err != nil {
			return err
		}
		e.Reset(files)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
	}
}
