package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/imyousuf/arelcop/internal/cache"
	"github.com/imyousuf/arelcop/internal/config"
	"github.com/imyousuf/arelcop/internal/engine"
	"github.com/imyousuf/arelcop/internal/gitutil"
	"github.com/imyousuf/arelcop/internal/parser"
	"github.com/imyousuf/arelcop/internal/parser/ruby"
	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/runner"
	"github.com/imyousuf/arelcop/internal/watcher"
)

// runFlags are the flags lint, fix and watch share.
type runFlags struct {
	jobs    int
	noCache bool
	changed bool
	base    string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "files processed in parallel (default: config, or one per CPU)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "do not read or write the result cache")
	cmd.Flags().BoolVar(&f.changed, "changed", false, "only inspect files changed in git")
	cmd.Flags().StringVar(&f.base, "base", "", "branch to compare against with --changed (default: main or master)")
}

// app wires the configured components for one command invocation.
type app struct {
	cfg      *config.Config
	registry *parser.Registry
	engine   *engine.Engine
	runner   *runner.Runner
	cache    *cache.Store
	ignore   *watcher.Ignore
	logger   *slog.Logger
}

func newApp(cmd *cobra.Command, flags *runFlags) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags != nil && flags.jobs > 0 {
		cfg.Jobs = flags.jobs
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr())
	if cfg.File != "" {
		logger.Debug("loaded config", "file", cfg.File)
	}

	registry := newRegistry()

	selected := rules.Select(cfg.DisabledRules)
	ruleCfg := cfg.RuleConfig()
	eng := engine.New(ruleCfg, cfg.Resolver(), engine.WithRules(selected), engine.WithLogger(logger))

	var store *cache.Store
	var fingerprint string
	if cfg.Cache.Enabled && (flags == nil || !flags.noCache) {
		names := make([]string, len(selected))
		for i, r := range selected {
			names[i] = r.Name
		}
		fingerprint, err = cache.Fingerprint(Version, names, ruleCfg, cfg.RecordBases)
		if err != nil {
			return nil, err
		}
		store, err = cache.Open(cfg.Cache.Dir)
		if err != nil {
			// Another run may hold the database lock; lint without it.
			logger.Warn("result cache unavailable", "dir", cfg.Cache.Dir, "error", err)
			store = nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	ignore := watcher.NewIgnore(cwd, cfg.Exclude)

	return &app{
		cfg:      cfg,
		registry: registry,
		engine:   eng,
		cache:    store,
		ignore:   ignore,
		logger:   logger,
		runner: runner.New(runner.Config{
			Registry:    registry,
			Engine:      eng,
			Cache:       store,
			Fingerprint: fingerprint,
			Jobs:        cfg.Jobs,
			MaxPasses:   cfg.MaxPasses,
			Logger:      logger,
		}),
	}, nil
}

// newRegistry returns the parsers for the languages arelcop inspects.
func newRegistry() *parser.Registry {
	registry := parser.NewRegistry()
	registry.Register(ruby.NewParser())
	return registry
}

func (a *app) Close() error {
	return a.cache.Close()
}

// roots returns the command-line paths, or the configured ones.
func (a *app) roots(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return a.cfg.Paths
}

// files resolves the files a command works on.
func (a *app) files(args []string, flags *runFlags) ([]string, error) {
	roots := a.roots(args)
	if err := a.ignore.LoadGitignore(dirsOnly(roots)...); err != nil {
		return nil, fmt.Errorf("load .gitignore: %w", err)
	}
	files, err := a.runner.DiscoverFiles(roots, a.ignore)
	if err != nil {
		return nil, err
	}
	if flags == nil || !flags.changed {
		return files, nil
	}
	return a.onlyChanged(files, flags.base)
}

func (a *app) onlyChanged(files []string, base string) ([]string, error) {
	if base == "" {
		if b, err := gitutil.DefaultBranch("."); err == nil {
			base = b
		}
	}
	changed, err := gitutil.ChangedFiles(".", base)
	if err != nil {
		return nil, fmt.Errorf("list changed files: %w", err)
	}
	set := make(map[string]bool, len(changed))
	for _, c := range changed {
		set[c.Path] = true
	}
	var out []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		if set[abs] {
			out = append(out, f)
		}
	}
	a.logger.Debug("limited to changed files", "base", base, "changed", len(changed), "files", len(out))
	return out, nil
}

func dirsOnly(paths []string) []string {
	var dirs []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs
}
