package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keys lists the settings that can be stored as home defaults.
var Keys = []string{"subfolders", "sort", "ext", "gitignore", "policy", "output", "log-level"}

// parseValue converts a command-line value for key into its YAML form and
// checks it against the settings rules.
func parseValue(key, value string) (any, error) {
	var l Layer
	var out any
	switch key {
	case "subfolders", "gitignore":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects true or false, got %q", ErrInvalidConfig, key, value)
		}
		if key == "subfolders" {
			l.Subfolders = &b
		} else {
			l.GitIgnore = &b
		}
		out = b
	case "ext":
		var exts []string
		for _, e := range strings.Split(value, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		if len(exts) == 0 {
			return nil, fmt.Errorf("%w: ext expects a comma-separated list", ErrInvalidConfig)
		}
		l.Ext = exts
		out = exts
	case "sort":
		l.Sort = value
		out = normalize(value)
	case "policy":
		l.Policy = value
		out = canonicalPolicy(value)
	case "log-level":
		l.LogLevel = value
		out = normalize(value)
	case "output":
		l.Output = value
		out = strings.TrimSpace(value)
	default:
		return nil, fmt.Errorf("%w: unknown key %q (expected one of %s)", ErrInvalidConfig, key, strings.Join(Keys, ", "))
	}
	if err := Defaults().Apply(l).Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetDefault stores key=value in the YAML file at path. Other keys, including
// profiles, are preserved, as are the file's permissions.
func SetDefault(path, key, value string) error {
	key = normalize(key)
	v, err := parseValue(key, value)
	if err != nil {
		return err
	}
	var cfg map[string]any
	data, err := os.ReadFile(path)
	if err == nil {
		if len(strings.TrimSpace(string(data))) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	if cfg == nil {
		cfg = make(map[string]any)
	}
	cfg[key] = v
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return os.WriteFile(path, out, perm)
}

// Show renders the stored home defaults as sorted "key: value" lines. A
// missing file renders nothing.
func Show(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var cfg map[string]any
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		if k != "profiles" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		switch v := cfg[k].(type) {
		case []any:
			parts := make([]string, len(v))
			for i, p := range v {
				parts[i] = fmt.Sprint(p)
			}
			fmt.Fprintf(&sb, "%s: %s\n", k, strings.Join(parts, ", "))
		default:
			fmt.Fprintf(&sb, "%s: %v\n", k, v)
		}
	}
	return sb.String(), nil
}
