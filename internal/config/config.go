// Package config resolves docmerge settings from built-in defaults, the
// home defaults file, a per-folder .docmerge file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/agusx1211/docmerge/internal/sequence"
)

// FileName is the name of both the per-folder file and the home defaults.
const FileName = ".docmerge"

// DefaultProfile is used when the requested profile is absent.
const DefaultProfile = "default"

// Environment variables consulted when the matching flag is not set.
const (
	EnvProfile  = "DOCMERGE_PROFILE"
	EnvLogLevel = "DOCMERGE_LOG_LEVEL"
)

// ErrInvalidConfig wraps every validation or parse failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Settings is the resolved configuration of one run.
type Settings struct {
	Subfolders bool     `yaml:"subfolders"`
	Sort       string   `yaml:"sort" validate:"oneof=name date size"`
	Ext        []string `yaml:"ext" validate:"dive,required"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	GitIgnore  bool     `yaml:"gitignore"`
	Policy     string   `yaml:"policy" validate:"oneof=strict append-extra"`
	Output     string   `yaml:"output" validate:"required"`
	LogLevel   string   `yaml:"log-level" validate:"oneof=debug info warn error"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Sort:      "name",
		Ext:       []string{".pdf"},
		GitIgnore: true,
		Policy:    "strict",
		Output:    "merged",
		LogLevel:  "warn",
	}
}

// Layer is one source of settings. Unset fields leave lower layers alone;
// Include and Exclude accumulate.
type Layer struct {
	Subfolders *bool    `yaml:"subfolders"`
	Sort       string   `yaml:"sort"`
	Ext        []string `yaml:"ext"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	GitIgnore  *bool    `yaml:"gitignore"`
	Policy     string   `yaml:"policy"`
	Output     string   `yaml:"output"`
	LogLevel   string   `yaml:"log-level"`
}

type file struct {
	Layer    `yaml:",inline"`
	Profiles map[string]Layer `yaml:"profiles"`
}

// Apply returns s with l layered on top.
func (s Settings) Apply(l Layer) Settings {
	if l.Subfolders != nil {
		s.Subfolders = *l.Subfolders
	}
	if l.GitIgnore != nil {
		s.GitIgnore = *l.GitIgnore
	}
	if v := normalize(l.Sort); v != "" {
		s.Sort = v
	}
	if len(l.Ext) > 0 {
		s.Ext = append([]string{}, l.Ext...)
	}
	if len(l.Include) > 0 {
		s.Include = append(append([]string{}, s.Include...), l.Include...)
	}
	if len(l.Exclude) > 0 {
		s.Exclude = append(append([]string{}, s.Exclude...), l.Exclude...)
	}
	if v := canonicalPolicy(l.Policy); v != "" {
		s.Policy = v
	}
	if v := strings.TrimSpace(l.Output); v != "" {
		s.Output = v
	}
	if v := normalize(l.LogLevel); v != "" {
		s.LogLevel = v
	}
	return s
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// canonicalPolicy maps policy aliases to their canonical name. Unknown
// values are kept so Validate can report them.
func canonicalPolicy(s string) string {
	v := normalize(s)
	if v == "" {
		return ""
	}
	if p, err := sequence.ParsePolicy(v); err == nil {
		return string(p)
	}
	return v
}

var validate = validator.New()

// Validate checks the resolved settings.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s, got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// ReadFile reads a .docmerge file and resolves profile against it. Profile
// entries are layered over the top-level ones; an unknown profile falls back
// to "default". A missing file yields an empty layer.
func ReadFile(path, profile string) (Layer, error) {
	cfg, err := parseFile(path)
	if err != nil || cfg == nil {
		return Layer{}, err
	}
	l := cfg.Layer
	if len(cfg.Profiles) > 0 {
		prof, ok := cfg.Profiles[profile]
		if !ok {
			prof, ok = cfg.Profiles[DefaultProfile]
		}
		if ok {
			l = merge(l, prof)
		}
	}
	return l, nil
}

func merge(base, over Layer) Layer {
	out := base
	if over.Subfolders != nil {
		out.Subfolders = over.Subfolders
	}
	if over.GitIgnore != nil {
		out.GitIgnore = over.GitIgnore
	}
	if over.Sort != "" {
		out.Sort = over.Sort
	}
	if len(over.Ext) > 0 {
		out.Ext = over.Ext
	}
	if len(over.Include) > 0 {
		out.Include = append(append([]string{}, base.Include...), over.Include...)
	}
	if len(over.Exclude) > 0 {
		out.Exclude = append(append([]string{}, base.Exclude...), over.Exclude...)
	}
	if over.Policy != "" {
		out.Policy = over.Policy
	}
	if over.Output != "" {
		out.Output = over.Output
	}
	if over.LogLevel != "" {
		out.LogLevel = over.LogLevel
	}
	return out
}

// ProfileInfo reports whether the file at path defines profiles, the
// requested one, and a default one.
func ProfileInfo(path, profile string) (hasProfiles, hasProfile, hasDefault bool, err error) {
	cfg, err := parseFile(path)
	if err != nil || cfg == nil || len(cfg.Profiles) == 0 {
		return false, false, false, err
	}
	_, hasProfile = cfg.Profiles[profile]
	_, hasDefault = cfg.Profiles[DefaultProfile]
	return true, hasProfile, hasDefault, nil
}

func parseFile(path string) (*file, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var cfg file
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
	}
	return &cfg, nil
}

// HomePath returns the path of the home defaults file.
func HomePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileName), nil
}

// Load resolves settings for a folder: defaults, then the home file at
// homePath (skipped when empty), then dir's .docmerge file. Flags are layered
// by the caller with Apply before calling Validate.
func Load(homePath, dir, profile string) (Settings, error) {
	s := Defaults()
	if homePath != "" {
		l, err := ReadFile(homePath, profile)
		if err != nil {
			return Settings{}, err
		}
		s = s.Apply(l)
	}
	if dir != "" {
		l, err := ReadFile(filepath.Join(dir, FileName), profile)
		if err != nil {
			return Settings{}, err
		}
		s = s.Apply(l)
	}
	return s, nil
}
