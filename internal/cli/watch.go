package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imyousuf/arelcop/internal/report"
	"github.com/imyousuf/arelcop/internal/runner"
	"github.com/imyousuf/arelcop/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		flags runFlags
		fix   bool
	)
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-lint Ruby files whenever they change",
		Long: `Lint the given paths once, then keep watching them and re-lint each
batch of changed files. With --fix, changed files are corrected in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, &flags)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			roots := a.roots(args)
			files, err := a.files(args, &flags)
			if err != nil {
				return err
			}

			// Set up signal handling.
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			process := func(ctx context.Context, files []string) error {
				var results []*runner.FileResult
				var err error
				if fix {
					results, err = a.runner.Fix(ctx, files, runner.FixOptions{})
				} else {
					results, err = a.runner.Lint(ctx, files)
				}
				if err != nil {
					return err
				}
				return report.NewTextWriter(out).Write(results)
			}
			if err := process(ctx, files); err != nil {
				return err
			}

			w := watcher.New(watcher.Options{
				Paths:  roots,
				Ignore: a.ignore,
				Accept: func(path string) bool {
					_, ok := a.registry.ForPath(path)
					return ok
				},
				Logger: a.logger,
			})
			defer w.Close()
			batches, err := w.Start(ctx)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			fmt.Fprintf(out, "\nWatching %d paths for changes (Ctrl-C to stop)...\n", len(roots))
			for batch := range batches {
				var changed []string
				for _, e := range batch {
					if e.Op == watcher.Remove || e.Op == watcher.Rename {
						continue
					}
					if _, err := os.Stat(e.Path); err == nil {
						changed = append(changed, e.Path)
					}
				}
				if len(changed) == 0 {
					continue
				}
				a.logger.Debug("files changed", "count", len(changed))
				if err := process(ctx, changed); err != nil {
					if ctx.Err() != nil {
						break
					}
					return err
				}
			}
			fmt.Fprintln(out, "\nShutting down...")
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&fix, "fix", false, "correct changed files in place")
	return cmd
}
