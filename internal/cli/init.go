package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/imyousuf/arelcop/internal/config"
	"github.com/imyousuf/arelcop/internal/rules"
)

func newInitCmd() *cobra.Command {
	var (
		useTOML     bool
		force       bool
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .arelcop.yaml config file",
		Long: `Write the default configuration to .arelcop.yaml (or .arelcop.toml
with --toml) in the current directory. With --interactive, a form asks for
the settings first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ext := ".yaml"
			if useTOML {
				ext = ".toml"
			}
			path := config.DefaultConfigFile + ext
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}

			out := cmd.OutOrStdout()
			cfg := config.Default()
			if interactive {
				ok, err := runConfigForm(cfg)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if err := config.WriteConfig(cfg, path); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}
			fmt.Fprintf(out, "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useTOML, "toml", false, "write TOML instead of YAML")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "choose settings with a form")
	return cmd
}

// runConfigForm lets the user edit cfg in place. It reports false when the
// user cancelled.
func runConfigForm(cfg *config.Config) (bool, error) {
	disabled := append([]string(nil), cfg.DisabledRules...)
	bases := strings.Join(cfg.RecordBases, ", ")
	reserved := strings.Join(cfg.ReservedMethods, ", ")
	receivers := strings.Join(cfg.AllowedReceivers, ", ")
	format := cfg.Format
	cacheEnabled := cfg.Cache.Enabled
	var confirm bool

	ruleOptions := make([]huh.Option[string], 0, len(rules.Default()))
	for _, r := range rules.Default() {
		opt := huh.NewOption(r.Name, r.Name)
		for _, d := range disabled {
			if d == r.Name {
				opt = opt.Selected(true)
			}
		}
		ruleOptions = append(ruleOptions, opt)
	}

	formatOptions := make([]huh.Option[string], 0, len(config.Formats))
	for _, f := range config.Formats {
		formatOptions = append(formatOptions, huh.NewOption(f, f))
	}

	form := huh.NewForm(
		// Group 1: Rules
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Rules to disable").
				Options(ruleOptions...).
				Value(&disabled),
		).Title("Rules"),

		// Group 2: Models
		huh.NewGroup(
			huh.NewInput().
				Title("Model base classes").
				Description("Receiver-less dynamic finders are only reported inside these").
				Value(&bases).
				Validate(func(s string) error {
					if len(splitList(s)) == 0 {
						return fmt.Errorf("at least one base class is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Reserved finder names").
				Description("Application methods that look like dynamic finders").
				Value(&reserved),
			huh.NewInput().
				Title("Allowed receivers").
				Description("Receivers whose dynamic finders are not reported, e.g. Gem::Specification").
				Value(&receivers),
		).Title("Models"),

		// Group 3: Output
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Report format").
				Options(formatOptions...).
				Value(&format),
			huh.NewConfirm().
				Title("Cache lint results?").
				Value(&cacheEnabled).
				Affirmative("Yes").
				Negative("No"),
		).Title("Output"),

		// Group 4: Confirm
		huh.NewGroup(
			huh.NewNote().
				Title("Summary").
				DescriptionFunc(func() string {
					off := strings.Join(disabled, ", ")
					if off == "" {
						off = "(none)"
					}
					return fmt.Sprintf(
						"Disabled:    %s\n"+
							"Bases:       %s\n"+
							"Reserved:    %s\n"+
							"Format:      %s\n"+
							"Cache:       %s",
						off, bases, reserved, format, boolYesNo(cacheEnabled),
					)
				}, &disabled),
			huh.NewConfirm().
				Title("Save?").
				Value(&confirm).
				Affirmative("Save").
				Negative("Cancel"),
		).Title("Confirm"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("interactive config: %w", err)
	}
	if !confirm {
		return false, nil
	}

	cfg.DisabledRules = disabled
	cfg.RecordBases = splitList(bases)
	cfg.ReservedMethods = splitList(reserved)
	cfg.AllowedReceivers = splitList(receivers)
	cfg.Format = format
	cfg.Cache.Enabled = cacheEnabled
	return true, nil
}

// splitList parses a comma-separated form value.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func boolYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
