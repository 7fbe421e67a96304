package cli

import (
	"github.com/spf13/cobra"

	"github.com/imyousuf/arelcop/internal/report"
	"github.com/imyousuf/arelcop/internal/runner"
)

func newLintCmd() *cobra.Command {
	var (
		flags  runFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Report hash-style queries and dynamic finders",
		Long: `Inspect Ruby files and report every legacy query idiom.

Paths default to the configured paths (the current directory). The command
exits with status 1 when any offense is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, &flags)
			if err != nil {
				return err
			}
			defer a.Close()

			files, err := a.files(args, &flags)
			if err != nil {
				return err
			}
			results, err := a.runner.Lint(cmd.Context(), files)
			if err != nil {
				return err
			}

			if format == "" {
				format = a.cfg.Format
			}
			if err := report.Write(cmd.OutOrStdout(), report.Format(format), results); err != nil {
				return err
			}
			if s := runner.Summarize(results); s.Offenses > 0 || s.Errors > 0 {
				return ErrOffenses
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, json or yaml (default: config)")
	return cmd
}
