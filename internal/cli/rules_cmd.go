package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/imyousuf/arelcop/internal/config"
	"github.com/imyousuf/arelcop/internal/parser"
	"github.com/imyousuf/arelcop/internal/rules"
)

var (
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	ruleNameStyle = lipgloss.NewStyle().Bold(true).Width(32)
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rules and whether they are enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, r := range rules.Default() {
				state := enabledStyle.Render("enabled ")
				if slices.Contains(cfg.DisabledRules, r.Name) {
					state = disabledStyle.Render("disabled")
				}
				fmt.Fprintf(out, "%s %s %s\n", state, ruleNameStyle.Render(r.Name), r.Description)
			}

			fmt.Fprintln(out)
			for _, p := range newRegistry().All() {
				names := slices.Sorted(slices.Values(p.Extensions()))
				names = append(names, parser.FileNames[p.Language()]...)
				fmt.Fprintf(out, "Inspects %s files: %s\n", p.Language(), strings.Join(names, ", "))
			}
			return nil
		},
	}
}
