package outline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"gopkg.in/yaml.v3"
)

// Extractor reads the outline of a reference document. Implementations
// return ErrNoOutline when the document has none.
type Extractor interface {
	Extract(path string) ([]Node, error)
}

// ForPath picks an Extractor from the reference document's extension.
func ForPath(path string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDFExtractor{}, nil
	case ".md", ".markdown":
		return MarkdownExtractor{}, nil
	case ".yaml", ".yml":
		return YAMLExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected .pdf, .md or .yaml)", ErrUnsupported, filepath.Base(path))
	}
}

// Titles extracts and flattens the outline of path in one step.
func Titles(path string) ([]string, error) {
	ex, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	nodes, err := ex.Extract(path)
	if err != nil {
		return nil, err
	}
	return Flatten(nodes)
}

// PDFExtractor reads PDF bookmarks.
type PDFExtractor struct{}

func (PDFExtractor) Extract(path string) ([]Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	bms, err := api.Bookmarks(f, conf)
	if err != nil {
		if errors.Is(err, api.ErrNoOutlines) {
			return nil, ErrNoOutline
		}
		return nil, fmt.Errorf("failed to read bookmarks of %s: %w", path, err)
	}
	if len(bms) == 0 {
		return nil, ErrNoOutline
	}
	return bookmarkNodes(bms), nil
}

func bookmarkNodes(bms []pdfcpu.Bookmark) []Node {
	nodes := make([]Node, 0, len(bms))
	for _, bm := range bms {
		nodes = append(nodes, Title(bm.Title))
		if len(bm.Kids) > 0 {
			nodes = append(nodes, Group(bookmarkNodes(bm.Kids)))
		}
	}
	return nodes
}

// MarkdownExtractor builds an outline from ATX headings. Deeper headings nest
// under the nearest shallower one; fenced code blocks are skipped.
type MarkdownExtractor struct{}

func (MarkdownExtractor) Extract(path string) ([]Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	type frame struct {
		level int
		nodes []Node
	}
	stack := []frame{{level: 0}}
	closeTop := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(top.nodes) > 0 {
			parent := &stack[len(stack)-1]
			parent.nodes = append(parent.nodes, Group(top.nodes))
		}
	}

	inFence := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t")
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		level, title, ok := parseHeading(line)
		if !ok {
			continue
		}
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			closeTop()
		}
		top := &stack[len(stack)-1]
		top.nodes = append(top.nodes, Title(title))
		stack = append(stack, frame{level: level})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	for len(stack) > 1 {
		closeTop()
	}
	if len(stack[0].nodes) == 0 {
		return nil, ErrNoOutline
	}
	return stack[0].nodes, nil
}

// parseHeading recognises "# Title" through "###### Title". Up to three
// leading spaces are allowed and a closing run of '#' is dropped.
func parseHeading(line string) (int, string, bool) {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 {
		return 0, "", false
	}
	s := line[indent:]
	level := 0
	for level < len(s) && s[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := s[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	rest = strings.TrimSpace(rest)
	if closing := strings.TrimRight(rest, "#"); closing != rest && (closing == "" || strings.HasSuffix(closing, " ")) {
		rest = strings.TrimSpace(closing)
	}
	if rest == "" {
		return 0, "", false
	}
	return level, rest, true
}

// YAMLExtractor reads an outline file: a YAML sequence whose items are titles
// or nested sequences. A mapping with a top-level "outline" key is accepted
// too.
type YAMLExtractor struct{}

func (YAMLExtractor) Extract(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes an outline document.
func ParseYAML(data []byte) ([]Node, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrNoOutline
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutline, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.MappingNode {
		var found *yaml.Node
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == "outline" {
				found = root.Content[i+1]
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: mapping without an outline key", ErrMalformedOutline)
		}
		root = found
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, ErrNoOutline
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: expected a list of titles", ErrMalformedOutline, root.Line)
	}
	nodes, err := yamlNodes(root)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNoOutline
	}
	return nodes, nil
}

func yamlNodes(seq *yaml.Node) ([]Node, error) {
	nodes := make([]Node, 0, len(seq.Content))
	for _, item := range seq.Content {
		switch {
		case item.Kind == yaml.ScalarNode && item.Tag != "!!null":
			nodes = append(nodes, Title(item.Value))
		case item.Kind == yaml.SequenceNode:
			kids, err := yamlNodes(item)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Group(kids))
		default:
			return nil, fmt.Errorf("%w: line %d: %q is not a title or a nested list", ErrMalformedOutline, item.Line, item.Value)
		}
	}
	return nodes, nil
}
