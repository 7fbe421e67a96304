package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/imyousuf/arelcop/internal/diff"
	"github.com/imyousuf/arelcop/internal/report"
	"github.com/imyousuf/arelcop/internal/runner"
)

func newFixCmd() *cobra.Command {
	var (
		flags       runFlags
		showDiff    bool
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Rewrite hash-style queries into chained query methods",
		Long: `Rewrite every correctable offense in place.

Each file is corrected in repeated passes until nothing more changes, so
nested offenses are fixed too. Files with syntax errors are left alone.

  --diff         print the changes as unified diffs without writing
  --interactive  show each file's diff and ask before writing it`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("--interactive needs a terminal")
			}

			a, err := newApp(cmd, &flags)
			if err != nil {
				return err
			}
			defer a.Close()

			files, err := a.files(args, &flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := runner.FixOptions{DryRun: showDiff}
			if interactive {
				opts.Confirm = func(path string, d []byte) bool {
					return confirmFix(out, path, d)
				}
			}
			results, err := a.runner.Fix(cmd.Context(), files, opts)
			if err != nil {
				return err
			}

			if showDiff {
				for _, res := range results {
					if len(res.Diff) == 0 {
						continue
					}
					if err := diff.Print(out, res.Diff); err != nil {
						return err
					}
				}
			}
			if err := report.NewTextWriter(out).Write(results); err != nil {
				return err
			}
			if s := runner.Summarize(results); s.Offenses > 0 || s.Errors > 0 {
				return ErrOffenses
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&showDiff, "diff", false, "print diffs instead of writing files")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "confirm each file before writing")
	cmd.MarkFlagsMutuallyExclusive("diff", "interactive")
	return cmd
}

// confirmFix shows the diff for path and asks whether to write it.
func confirmFix(out io.Writer, path string, d []byte) bool {
	fmt.Fprintln(out)
	if err := diff.Print(out, d); err != nil {
		return false
	}
	apply := true
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Apply fixes to %s?", path)).
		Affirmative("Apply").
		Negative("Skip").
		Value(&apply).
		Run()
	if err != nil {
		return false
	}
	return apply
}
