package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agusx1211/docmerge/internal/config"
)

const creator = "docmerge"

// app carries the streams and flag values shared by every command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// homeConfig is the home defaults file; empty disables it.
	homeConfig string
	// interactive allows the overwrite prompt to read from stdin.
	interactive bool
	log         *slog.Logger

	subfolders bool
	sortBy     string
	exts       []string
	include    []string
	exclude    []string
	gitIgnore  bool
	profile    string
	logLevel   string
}

func newApp() *app {
	home, err := config.HomePath()
	if err != nil {
		home = ""
	}
	return &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		homeConfig:  home,
		interactive: isTerminal(os.Stdin),
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docmerge",
		Short: "Docmerge combines the documents of a folder into one, in outline order",
		Long: `Docmerge lists the documents of a folder, optionally orders them by the
outline of a reference document (PDF bookmarks, Markdown headings or a YAML
outline), lets you adjust the order and concatenates the result into a single
document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&a.subfolders, "subfolders", "r", false, "Include files in subfolders")
	pf.StringVar(&a.sortBy, "sort", "", "Discovery order: name, date or size")
	pf.StringSliceVar(&a.exts, "ext", nil, "File extensions to include (default .pdf)")
	pf.StringSliceVar(&a.include, "include", nil, "Only include files matching these glob patterns")
	pf.StringSliceVar(&a.exclude, "exclude", nil, "Exclude files matching these glob patterns (a trailing / excludes a directory)")
	pf.BoolVar(&a.gitIgnore, "gitignore", true, "Skip files ignored by the folder's .gitignore")
	pf.StringVar(&a.profile, "profile", "", "Profile to use from .docmerge (env "+config.EnvProfile+")")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (env "+config.EnvLogLevel+")")

	rootCmd.AddCommand(newListCmd(a), newSequenceCmd(a), newMergeCmd(a), newConfigCmd(a))
	return rootCmd
}

// flagLayer returns the settings explicitly given on the command line.
func (a *app) flagLayer(cmd *cobra.Command) config.Layer {
	var l config.Layer
	flags := cmd.Flags()
	if flags.Changed("subfolders") {
		l.Subfolders = &a.subfolders
	}
	if flags.Changed("gitignore") {
		l.GitIgnore = &a.gitIgnore
	}
	if flags.Changed("sort") {
		l.Sort = a.sortBy
	}
	if flags.Changed("ext") {
		l.Ext = a.exts
	}
	l.Include = a.include
	l.Exclude = a.exclude
	if flags.Changed("log-level") {
		l.LogLevel = a.logLevel
	}
	return l
}

// settings resolves the configuration for dir and sets up logging.
func (a *app) settings(cmd *cobra.Command, dir string, extra config.Layer) (config.Settings, error) {
	profile := a.profile
	if profile == "" {
		profile = os.Getenv(config.EnvProfile)
	}
	s, err := config.Load(a.homeConfig, dir, profile)
	if err != nil {
		return config.Settings{}, err
	}
	if env := os.Getenv(config.EnvLogLevel); env != "" {
		s = s.Apply(config.Layer{LogLevel: env})
	}
	s = s.Apply(a.flagLayer(cmd)).Apply(extra)
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	a.log = newLogger(a.stderr, s.LogLevel)
	if profile != "" && dir != "" {
		a.warnMissingProfile(dir, profile)
	}
	return s, nil
}

func (a *app) warnMissingProfile(dir, profile string) {
	path := filepath.Join(dir, config.FileName)
	hasProfiles, hasProfile, hasDefault, err := config.ProfileInfo(path, profile)
	if err != nil || !hasProfiles || hasProfile {
		return
	}
	if hasDefault {
		a.log.Warn("profile not found, using default", "profile", profile, "file", path)
	} else {
		a.log.Warn("profile not found", "profile", profile, "file", path)
	}
}

// newLogger builds the stderr logger of one run, tagged with a fresh run id.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}
	return slog.New(slog.NewTextHandler(w, opts)).With("run", uuid.NewString())
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
