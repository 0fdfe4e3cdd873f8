// Package discovery lists the candidate files of a source folder in a
// deterministic order.
package discovery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agusx1211/docmerge/internal/sequence"
)

// ErrUnknownSortKey is returned for a sort key other than name, date or size.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey orders the discovery listing.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
	SortBySize SortKey = "size"
)

// ParseSortKey maps user input to a SortKey. Empty input means name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByName, nil
	case SortByName, SortByDate, SortBySize:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q (want name, date or size)", ErrUnknownSortKey, s)
	}
}

// Options controls one discovery pass.
type Options struct {
	Root      string
	Recursive bool
	SortBy    SortKey
	// Extensions restricts results to these extensions, compared
	// case-insensitively. Empty means every file.
	Extensions []string
	// Include and Exclude are doublestar patterns matched against the path
	// relative to Root. Exclude entries ending in "/" skip whole directories.
	Include          []string
	Exclude          []string
	RespectGitIgnore bool
	Logger           *slog.Logger
}

// Discover lists the candidate files under opts.Root.
func Discover(opts Options) ([]sequence.CandidateFile, error) {
	key, err := ParseSortKey(string(opts.SortBy))
	if err != nil {
		return nil, err
	}
	root := opts.Root
	if root == "" {
		root = "."
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	filter, err := NewFilter(root, opts.RespectGitIgnore, opts.Extensions, opts.Include, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}

	var files []sequence.CandidateFile
	if opts.Recursive {
		files, err = walk(root, filter)
	} else {
		files, err = readDir(root, filter)
	}
	if err != nil {
		return nil, err
	}

	Sort(files, key)

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log.Debug("discovery finished", "root", root, "recursive", opts.Recursive, "sort", key, "files", len(files))
	return files, nil
}

func readDir(root string, filter *Filter) ([]sequence.CandidateFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}
	var files []sequence.CandidateFile
	for _, item := range entries {
		if !item.Type().IsRegular() {
			continue
		}
		path := filepath.Join(root, item.Name())
		if !filter.Match(path) {
			continue
		}
		f, err := candidate(path, item)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func walk(root string, filter *Filter) ([]sequence.CandidateFile, error) {
	var files []sequence.CandidateFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if d.IsDir() {
			if path != root && filter.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.Match(path) {
			return nil
		}
		f, err := candidate(path, d)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func candidate(path string, d fs.DirEntry) (sequence.CandidateFile, error) {
	info, err := d.Info()
	if err != nil {
		return sequence.CandidateFile{}, fmt.Errorf("failed to stat path %s: %w", path, err)
	}
	return sequence.CandidateFile{
		Path:    path,
		Name:    d.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Sort orders files in place by key, breaking ties by path.
func Sort(files []sequence.CandidateFile, key SortKey) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch key {
		case SortByDate:
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.Before(b.ModTime)
			}
		case SortBySize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		}
		return a.Path < b.Path
	})
}
