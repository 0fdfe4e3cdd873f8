// Package pdfcat concatenates PDF documents with pdfcpu.
package pdfcat

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/agusx1211/docmerge/internal/backend"
	"github.com/agusx1211/docmerge/internal/merge"
	"github.com/agusx1211/docmerge/internal/sequence"
)

// Concatenator implements merge.Concatenator for PDF files. Files are
// validated on Append and combined in one pass on Finalize.
type Concatenator struct {
	// DividerPage inserts a blank page between merged documents.
	DividerPage bool

	conf  *model.Configuration
	queue []string
	meta  map[string]string
}

var _ merge.Concatenator = (*Concatenator)(nil)

// New returns a Concatenator using pdfcpu's relaxed validation.
func New() *Concatenator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Concatenator{conf: conf}
}

// Append validates f and queues it for merging.
func (c *Concatenator) Append(f sequence.CandidateFile) error {
	if _, err := os.Stat(f.Path); err != nil {
		return fmt.Errorf("failed to stat path %s: %w", f.Path, err)
	}
	if err := api.ValidateFile(f.Path, c.conf); err != nil {
		return fmt.Errorf("invalid PDF %s: %w", f.Name, err)
	}
	c.queue = append(c.queue, f.Path)
	return nil
}

// EmbedMetadata records document properties written on Finalize.
func (c *Concatenator) EmbedMetadata(meta map[string]string) error {
	c.meta = make(map[string]string, len(meta))
	for k, v := range meta {
		if k == "" {
			return errors.New("metadata key is empty")
		}
		c.meta[k] = v
	}
	return nil
}

// Finalize merges the queued files into target.
func (c *Concatenator) Finalize(target string) error {
	if len(c.queue) == 0 {
		return errors.New("no file could be appended")
	}
	tmp, err := backend.TempFile(target)
	if err != nil {
		return err
	}
	if err := api.MergeCreateFile(c.queue, tmp, c.DividerPage, c.conf); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to merge PDFs: %w", err)
	}
	if len(c.meta) > 0 {
		if err := api.AddPropertiesFile(tmp, "", c.meta, c.conf); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("failed to write document properties: %w", err)
		}
	}
	return backend.Replace(tmp, target)
}

// PageCount returns the number of pages of a PDF file.
func PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}
