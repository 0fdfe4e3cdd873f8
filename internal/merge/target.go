package merge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrOverwriteDeclined is returned when the target exists and the user did
// not confirm overwriting it.
var ErrOverwriteDeclined = errors.New("overwrite not confirmed")

// ResolveTarget turns an output name into a path. ext is appended when name
// lacks it (case-insensitively), and relative names land inside dir.
func ResolveTarget(dir, name, ext string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("output file name is empty")
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
		name += strings.ToLower(ext)
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	return filepath.Join(dir, name), nil
}

// ConfirmOverwrite checks whether target may be written. A missing target is
// always fine. An existing one needs assumeYes, or a "y"/"yes" answer read
// from in after the prompt is written to out.
func ConfirmOverwrite(target string, assumeYes bool, in io.Reader, out io.Writer) error {
	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if info.IsDir() {
		return fmt.Errorf("output %s is a directory", target)
	}
	if assumeYes {
		return nil
	}
	if in == nil {
		return fmt.Errorf("%w: %s already exists (use --yes to overwrite)", ErrOverwriteDeclined, target)
	}
	fmt.Fprintf(out, "%s already exists. Overwrite? [y/N] ", filepath.Base(target))
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrOverwriteDeclined, target)
	}
}
