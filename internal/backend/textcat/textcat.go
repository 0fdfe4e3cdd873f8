// Package textcat concatenates text-like documents (Markdown, plain text,
// YAML, source files) into one annotated text file.
package textcat

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agusx1211/docmerge/internal/backend"
	"github.com/agusx1211/docmerge/internal/merge"
	"github.com/agusx1211/docmerge/internal/sequence"
)

// ErrBinaryFile is the append failure reason for non-text input.
var ErrBinaryFile = errors.New("not a text file")

// Header lines that identify a combined text output.
const (
	totalFilesPrefix  = "- Total files: "
	totalSizePrefix   = "- Total size: "
	sourceFilesPrefix = "- Source files: "
)

type entry struct {
	file    sequence.CandidateFile
	content []byte
	hash    string
}

// Concatenator implements merge.Concatenator for text documents.
type Concatenator struct {
	// Dedup replaces the content of a file identical to an earlier one with
	// a back reference.
	Dedup bool

	entries []entry
	meta    map[string]string
}

var _ merge.Concatenator = (*Concatenator)(nil)

// New returns an empty text concatenator.
func New() *Concatenator {
	return &Concatenator{}
}

// Append reads f and queues it. Binary files are rejected.
func (c *Concatenator) Append(f sequence.CandidateFile) error {
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", f.Path, err)
	}
	if isBinary(f.Path, content) {
		return fmt.Errorf("%w: %s", ErrBinaryFile, f.Name)
	}
	sum := sha256.Sum256(content)
	c.entries = append(c.entries, entry{file: f, content: content, hash: hex.EncodeToString(sum[:])})
	return nil
}

// EmbedMetadata stores header lines for the output.
func (c *Concatenator) EmbedMetadata(meta map[string]string) error {
	c.meta = make(map[string]string, len(meta))
	for k, v := range meta {
		if strings.ContainsAny(k, "\n:") || strings.Contains(v, "\n") {
			return fmt.Errorf("metadata %q cannot span lines or contain ':' in its key", k)
		}
		c.meta[k] = v
	}
	return nil
}

// Finalize writes the queued files to target.
func (c *Concatenator) Finalize(target string) error {
	if len(c.entries) == 0 {
		return errors.New("no file could be appended")
	}
	return backend.WriteAtomic(target, c.render)
}

func (c *Concatenator) render(w io.Writer) error {
	var total int64
	for _, e := range c.entries {
		total += int64(len(e.content))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s%d\n", totalFilesPrefix, len(c.entries)))
	sb.WriteString(fmt.Sprintf("%s%d bytes\n", totalSizePrefix, total))
	if src, ok := c.meta[merge.MetaSourceFiles]; ok {
		sb.WriteString(sourceFilesPrefix + src + "\n")
	}
	keys := make([]string, 0, len(c.meta))
	for k := range c.meta {
		if k != merge.MetaSourceFiles {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", k, c.meta[k]))
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	seen := make(map[string]string)
	for _, e := range c.entries {
		sb.Reset()
		sb.WriteString(fmt.Sprintf("\n- path: %s\n", e.file.Name))
		if first, ok := seen[e.hash]; ok && c.Dedup {
			sb.WriteString(fmt.Sprintf("- content: Contents are identical to %s\n", first))
		} else {
			seen[e.hash] = e.file.Name
			sb.WriteString(fmt.Sprintf("- content:\n```\n%s\n```\n", strings.TrimSuffix(string(e.content), "\n")))
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// IsOwnOutput reports whether path holds a combined text output, so that a
// previous run's result is not merged into the next one.
func IsOwnOutput(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 256)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	lines := strings.SplitN(string(head[:n]), "\n", 3)
	if len(lines) < 2 {
		return false, nil
	}
	return strings.HasPrefix(lines[0], totalFilesPrefix) &&
		strings.HasPrefix(lines[1], totalSizePrefix), nil
}

// isBinary makes a quick guess from the extension and the first bytes.
func isBinary(path string, content []byte) bool {
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if strings.HasPrefix(mimeType, "application/") && !textualApplication(mimeType) {
		return true
	}
	if len(content) == 0 {
		return false
	}
	if len(content) > 2048 {
		content = content[:2048]
	}
	return !strings.HasPrefix(http.DetectContentType(content), "text/")
}

func textualApplication(mimeType string) bool {
	for _, s := range []string{"json", "xml", "yaml", "javascript", "toml"} {
		if strings.Contains(mimeType, s) {
			return true
		}
	}
	return false
}
