package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// Filter decides which paths under a root become candidate files.
type Filter struct {
	gitIgnore       *ignore.GitIgnore
	baseDir         string
	extensions      []string
	includePatterns []string
	excludePatterns []string
	excludedDirs    []string
}

// NewFilter creates a filter for the given root.
// Exclude patterns ending with "/" are treated as directory excludes; otherwise, file excludes.
func NewFilter(dir string, respectGitIgnore bool, extensions, includePatterns, excludePatterns []string) (*Filter, error) {
	f := &Filter{
		baseDir:         dir,
		includePatterns: includePatterns,
	}
	for _, ext := range extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions = append(f.extensions, strings.ToLower(ext))
	}
	for _, pat := range excludePatterns {
		if strings.HasSuffix(pat, "/") {
			f.excludedDirs = append(f.excludedDirs, strings.TrimSuffix(pat, "/"))
		} else {
			f.excludePatterns = append(f.excludePatterns, pat)
		}
	}

	if respectGitIgnore {
		gitIgnorePath := filepath.Join(dir, ".gitignore")
		if _, err := os.Stat(gitIgnorePath); err == nil {
			gitIgnore, err := ignore.CompileIgnoreFile(gitIgnorePath)
			if err != nil {
				return nil, err
			}
			f.gitIgnore = gitIgnore
		}
	}

	return f, nil
}

// SkipDir reports whether a directory should not be descended into.
func (f *Filter) SkipDir(path string) bool {
	if filepath.Base(path) == ".git" {
		return true
	}
	rel, ok := f.rel(path)
	if !ok || rel == "." {
		return false
	}
	if f.ignored(rel) {
		return true
	}
	for _, dir := range f.excludedDirs {
		if rel == dir || strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// Match reports whether a regular file is a candidate.
func (f *Filter) Match(path string) bool {
	if len(f.extensions) > 0 && !f.hasExtension(path) {
		return false
	}
	rel, ok := f.rel(path)
	if !ok {
		return false
	}
	if f.ignored(rel) {
		return false
	}
	if matchesAny(rel, f.excludePatterns) {
		return false
	}
	if len(f.includePatterns) > 0 {
		return matchesAny(rel, f.includePatterns)
	}
	return true
}

func (f *Filter) hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range f.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (f *Filter) ignored(rel string) bool {
	return f.gitIgnore != nil && f.gitIgnore.MatchesPath(rel)
}

func (f *Filter) rel(path string) (string, bool) {
	rel, err := filepath.Rel(f.baseDir, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// matchesAny tries each pattern against the relative path and, for patterns
// without a slash, against the base name as well. Malformed patterns never
// match.
func matchesAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, pathBase(rel)); ok {
				return true
			}
		}
	}
	return false
}

func pathBase(rel string) string {
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		return rel[i+1:]
	}
	return rel
}
