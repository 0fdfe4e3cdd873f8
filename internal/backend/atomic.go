// Package backend holds the pieces shared by the concatenation backends.
package backend

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilePerm is applied to every combined output.
const FilePerm os.FileMode = 0o644

// TempFile creates an empty temporary file next to target, so that a later
// rename stays on one filesystem. The caller owns the returned path.
func TempFile(target string) (string, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".docmerge-*"+filepath.Ext(target))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Replace moves a finished temporary file onto target.
func Replace(tmp, target string) error {
	_ = os.Chmod(tmp, FilePerm)
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// WriteAtomic streams write's output into a temporary file beside target and
// renames it into place. target is untouched when write or any I/O fails.
func WriteAtomic(target string, write func(w io.Writer) error) error {
	name, err := TempFile(target)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, FilePerm)
	if err != nil {
		_ = os.Remove(name)
		return err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if err := write(bw); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return Replace(name, target)
}
