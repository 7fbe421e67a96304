package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/imyousuf/arelcop/internal/config"
)

// Style definitions for config view.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	labelStyle = lipgloss.NewStyle().
			Faint(true).
			Width(22)
	valueStyle = lipgloss.NewStyle()
)

func newConfigCmd() *cobra.Command {
	var raw string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit the configuration",
		Long: `Display the effective arelcop configuration: defaults, the config
file and ARELCOP_* environment variables combined.

Use --output yaml or --output toml to print it in file form, and
'config edit' to change the config file interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if raw != "" {
				data, err := config.Marshal(cfg, raw)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&raw, "output", "o", "", "print as yaml or toml")
	cmd.AddCommand(newConfigEditCmd())
	return cmd
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out)

	// Title
	fmt.Fprintln(out, headerStyle.Render("arelcop Configuration"))
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 21)))
	fmt.Fprintln(out)

	file := cfg.File
	if file == "" {
		file = "(defaults)"
	}
	printKV(out, "Config file", file)
	fmt.Fprintln(out)

	// Inputs
	printSection(out, "Inputs")
	printKV(out, "Paths", joinOrNone(cfg.Paths))
	printKV(out, "Exclude", joinOrNone(cfg.Exclude))
	printKV(out, "File types", joinOrNone(newRegistry().SupportedExtensions()))
	fmt.Fprintln(out)

	// Rules
	printSection(out, "Rules")
	printKV(out, "Disabled", joinOrNone(cfg.DisabledRules))
	printKV(out, "Record bases", joinOrNone(cfg.RecordBases))
	printKV(out, "Allowed methods", joinOrNone(cfg.AllowedMethods))
	printKV(out, "Allowed receivers", joinOrNone(cfg.AllowedReceivers))
	printKV(out, "Reserved methods", joinOrNone(cfg.ReservedMethods))
	printKV(out, "Kept has_many keys", joinOrNone(cfg.RelationExcludedKeys))
	fmt.Fprintln(out)

	// Run
	printSection(out, "Run")
	jobs := strconv.Itoa(cfg.Jobs)
	if cfg.Jobs == 0 {
		jobs = "one per CPU"
	}
	printKV(out, "Jobs", jobs)
	printKV(out, "Max fix passes", strconv.Itoa(cfg.MaxPasses))
	printKV(out, "Format", cfg.Format)
	printKV(out, "Cache", boolYesNo(cfg.Cache.Enabled))
	if cfg.Cache.Enabled {
		printKV(out, "Cache dir", cfg.Cache.Dir)
	}
	fmt.Fprintln(out)
}

func printSection(out io.Writer, title string) {
	fmt.Fprintf(out, "  %s\n", headerStyle.Render(title))
}

func printKV(out io.Writer, label, value string) {
	fmt.Fprintf(out, "    %s%s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.File == "" {
				return fmt.Errorf("no config file found; run 'arelcop init' first")
			}

			out := cmd.OutOrStdout()
			ok, err := runConfigForm(cfg)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if err := config.WriteConfig(cfg, cfg.File); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(out, "Configuration saved to %s\n", cfg.File)
			return nil
		},
	}
}
