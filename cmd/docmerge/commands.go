package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agusx1211/docmerge/internal/backend/pdfcat"
	"github.com/agusx1211/docmerge/internal/backend/textcat"
	"github.com/agusx1211/docmerge/internal/config"
	"github.com/agusx1211/docmerge/internal/discovery"
	"github.com/agusx1211/docmerge/internal/merge"
	"github.com/agusx1211/docmerge/internal/order"
	"github.com/agusx1211/docmerge/internal/outline"
	"github.com/agusx1211/docmerge/internal/report"
	"github.com/agusx1211/docmerge/internal/sequence"
)

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [directory]",
		Short: "Print the files of a folder in discovery order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dirArg(args)
			s, err := a.settings(cmd, dir, config.Layer{})
			if err != nil {
				return err
			}
			files, err := a.discover(dir, s, "")
			if err != nil {
				return err
			}
			a.printer().Listing("Files", files)
			return nil
		},
	}
}

type orderFlags struct {
	from   string
	policy string
}

func (o *orderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.from, "from", "", "Reference document whose outline orders the files (.pdf, .md or .yaml)")
	cmd.Flags().StringVar(&o.policy, "policy", "", "What to do with files not in the outline: strict or append-extra")
}

// layer turns the flags into settings. Policy aliases accepted by
// sequence.ParsePolicy are stored under their canonical name.
func (o *orderFlags) layer() (config.Layer, error) {
	if o.policy == "" {
		return config.Layer{}, nil
	}
	p, err := sequence.ParsePolicy(o.policy)
	if err != nil {
		return config.Layer{}, err
	}
	return config.Layer{Policy: string(p)}, nil
}

func newSequenceCmd(a *app) *cobra.Command {
	var of orderFlags
	cmd := &cobra.Command{
		Use:   "sequence [directory]",
		Short: "Match the files of a folder against a reference outline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if of.from == "" {
				return errors.New("--from is required")
			}
			dir := dirArg(args)
			extra, err := of.layer()
			if err != nil {
				return err
			}
			s, err := a.settings(cmd, dir, extra)
			if err != nil {
				return err
			}
			files, err := a.discover(dir, s, "")
			if err != nil {
				return err
			}
			working, res, err := a.workingOrder(files, s, of.from)
			if err != nil {
				return err
			}
			p := a.printer()
			if res != nil {
				p.Reconciliation(res)
			}
			p.Listing("Working order", working)
			return nil
		},
	}
	of.register(cmd)
	return cmd
}

func newMergeCmd(a *app) *cobra.Command {
	var (
		of        orderFlags
		output    string
		edit      string
		assumeYes bool
		tcount    bool
		detailed  bool
		noDedup   bool
		divider   bool
	)
	cmd := &cobra.Command{
		Use:   "merge [directory]",
		Short: "Combine the files of a folder into one document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dirArg(args)
			extra, err := of.layer()
			if err != nil {
				return err
			}
			extra.Output = output
			s, err := a.settings(cmd, dir, extra)
			if err != nil {
				return err
			}
			ops, err := order.ParseOps(edit)
			if err != nil {
				return err
			}

			target, err := merge.ResolveTarget(dir, s.Output, outputExt(s))
			if err != nil {
				return err
			}
			files, err := a.discover(dir, s, target)
			if err != nil {
				return err
			}
			working, res, err := a.workingOrder(files, s, of.from)
			if err != nil {
				return err
			}
			p := a.printer()
			if res != nil {
				p.Reconciliation(res)
			}

			if len(ops) > 0 {
				ed := order.New(working)
				rediscover := func() ([]sequence.CandidateFile, error) { return a.discover(dir, s, target) }
				if err := ed.Apply(ops, rediscover); err != nil {
					return err
				}
				working = ed.Files()
				p.Listing("Edited order", working)
			}

			var in = a.stdin
			if !a.interactive {
				in = nil
			}
			if err := merge.ConfirmOverwrite(target, assumeYes, in, a.stderr); err != nil {
				return err
			}

			x := &merge.Executor{
				Backend:  newBackend(target, !noDedup, divider),
				Progress: (&report.Printer{W: a.stderr, Styles: report.PlainStyles()}).Progress(),
				Logger:   a.log,
				Creator:  creator,
			}
			out, err := x.Run(cmd.Context(), working, target)
			if out != nil {
				p.Merge(out)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return fmt.Errorf("merge interrupted: %w", err)
				}
				return err
			}

			if tcount || detailed {
				if strings.EqualFold(filepath.Ext(target), ".pdf") {
					return errors.New("--tcount only applies to text outputs")
				}
				tr, err := report.TokenReport(report.DefaultTokenModel, target, working, detailed)
				if err != nil {
					return err
				}
				fmt.Fprint(a.stdout, tr)
			}
			return nil
		},
	}
	of.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file name; the extension is added when missing (default \"merged\")")
	cmd.Flags().StringVar(&edit, "edit", "", "Edit script applied to the working order, e.g. \"up:3;reverse\"")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Overwrite the output without asking")
	cmd.Flags().BoolVar(&tcount, "tcount", false, "Print the token count of a text output")
	cmd.Flags().BoolVar(&detailed, "tcount-detailed", false, "Print the token count per source file")
	cmd.Flags().BoolVar(&noDedup, "no-dedup", false, "Repeat the content of identical text files")
	cmd.Flags().BoolVar(&divider, "divider", false, "Insert a blank page between merged PDFs")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the home defaults (~/" + config.FileName + ")",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a default: " + strings.Join(config.Keys, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.homeConfig == "" {
				return errors.New("cannot locate the home directory")
			}
			if err := config.SetDefault(a.homeConfig, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Default %s saved to %s\n", args[0], a.homeConfig)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.homeConfig == "" {
				return errors.New("cannot locate the home directory")
			}
			out, err := config.Show(a.homeConfig)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, out)
			return nil
		},
	})
	return cmd
}

func (a *app) printer() *report.Printer {
	return report.NewPrinter(a.stdout)
}

// discover lists dir with s, leaving out target and earlier text outputs.
func (a *app) discover(dir string, s config.Settings, target string) ([]sequence.CandidateFile, error) {
	sortKey, err := discovery.ParseSortKey(s.Sort)
	if err != nil {
		return nil, err
	}
	files, err := discovery.Discover(discovery.Options{
		Root:             dir,
		Recursive:        s.Subfolders,
		SortBy:           sortKey,
		Extensions:       s.Ext,
		Include:          s.Include,
		Exclude:          s.Exclude,
		RespectGitIgnore: s.GitIgnore,
		Logger:           a.log,
	})
	if err != nil {
		return nil, err
	}
	targetAbs := absPath(target)
	kept := files[:0]
	for _, f := range files {
		if targetAbs != "" && absPath(f.Path) == targetAbs {
			continue
		}
		if !strings.EqualFold(filepath.Ext(f.Path), ".pdf") {
			if own, err := textcat.IsOwnOutput(f.Path); err == nil && own {
				a.log.Info("skipping previous output", "file", f.Path)
				continue
			}
		}
		kept = append(kept, f)
	}
	a.log.Info("discovered files", "dir", dir, "files", len(kept))
	return kept, nil
}

// absPath cleans path into an absolute one; it returns "" for an empty path.
func absPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// workingOrder orders files by the outline of from. Without a reference, or
// when nothing in the outline matches, discovery order is kept. The
// reconciliation result is nil when no outline was used.
func (a *app) workingOrder(files []sequence.CandidateFile, s config.Settings, from string) ([]sequence.CandidateFile, *sequence.Result, error) {
	if from == "" {
		return files, nil, nil
	}
	titles, err := outline.Titles(from)
	if errors.Is(err, outline.ErrNoOutline) {
		a.log.Warn("reference has no outline, keeping discovery order", "from", from)
		return files, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	res, err := sequence.Reconcile(titles, sequence.NewIndex(files, outputExt(s)))
	found, missing, extra := res.Counts()
	a.log.Info("reconciled", "from", from, "found", found, "missing", missing, "extra", extra)
	if errors.Is(err, sequence.ErrEmptySequence) {
		a.log.Warn("no outline entry matched a file, keeping discovery order", "from", from)
		return files, res, nil
	}
	if err != nil {
		return nil, nil, err
	}
	policy, err := sequence.ParsePolicy(s.Policy)
	if err != nil {
		return nil, nil, err
	}
	working, err := res.WorkingOrder(policy)
	if err != nil {
		return nil, nil, err
	}
	return working, res, nil
}

// outputExt is the first configured extension, which both names the output
// and is tried when outline titles carry none.
func outputExt(s config.Settings) string {
	if len(s.Ext) == 0 {
		return sequence.DefaultExt
	}
	ext := strings.ToLower(strings.TrimSpace(s.Ext[0]))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func newBackend(target string, dedup, divider bool) merge.Concatenator {
	if strings.EqualFold(filepath.Ext(target), ".pdf") {
		c := pdfcat.New()
		c.DividerPage = divider
		return c
	}
	c := textcat.New()
	c.Dedup = dedup
	return c
}
