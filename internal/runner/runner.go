// Package runner drives the engine over a set of files: discovery, parallel
// linting with a result cache, and multi-pass fixing.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imyousuf/arelcop/internal/cache"
	"github.com/imyousuf/arelcop/internal/diff"
	"github.com/imyousuf/arelcop/internal/engine"
	"github.com/imyousuf/arelcop/internal/parser"
	"github.com/imyousuf/arelcop/internal/rules"
	"github.com/imyousuf/arelcop/internal/syntax"
	"github.com/imyousuf/arelcop/internal/watcher"
)

var (
	// ErrSyntax is recorded for files the parser could only partially read.
	// Such files are linted but never rewritten.
	ErrSyntax = errors.New("file has syntax errors")
	// ErrBrokenFix is recorded when the corrected text no longer parses.
	ErrBrokenFix = errors.New("fix introduced syntax errors")
	// ErrNoParser is returned for a file no registered parser handles.
	ErrNoParser = errors.New("no parser for file")
)

// Config holds configuration for the Runner.
type Config struct {
	Registry *parser.Registry
	Engine   *engine.Engine
	// Cache is optional. A nil cache disables caching.
	Cache *cache.Store
	// Fingerprint identifies the rule configuration in cache keys.
	Fingerprint string
	// Jobs bounds parallelism; zero means one job per CPU.
	Jobs      int
	MaxPasses int
	Logger    *slog.Logger
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path        string             `json:"path" yaml:"path"`
	Diagnostics []rules.Diagnostic `json:"offenses" yaml:"offenses"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`

	Err    error  `json:"-" yaml:"-"`
	Source []byte `json:"-" yaml:"-"`
	Cached bool   `json:"-" yaml:"-"`

	// Set by Fix.
	Fixed     []byte `json:"-" yaml:"-"`
	Corrected int    `json:"corrected,omitempty" yaml:"corrected,omitempty"`
	Passes    int    `json:"-" yaml:"-"`
	Diff      []byte `json:"-" yaml:"-"`
	Written   bool   `json:"written,omitempty" yaml:"written,omitempty"`
	// Skipped is set when Confirm declined the fix.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

func (r *FileResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// Runner lints and fixes files.
type Runner struct {
	registry    *parser.Registry
	engine      *engine.Engine
	cache       *cache.Store
	fingerprint string
	jobs        int
	maxPasses   int
	logger      *slog.Logger
}

// New creates a Runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Runner{
		registry:    cfg.Registry,
		engine:      cfg.Engine,
		cache:       cfg.Cache,
		fingerprint: cfg.Fingerprint,
		jobs:        jobs,
		maxPasses:   cfg.MaxPasses,
		logger:      logger,
	}
}

// DiscoverFiles expands paths into the sorted list of files a parser is
// registered for. Directories are walked, skipping what ig ignores. Files
// named explicitly are kept even when ignored.
func (r *Runner) DiscoverFiles(paths []string, ig *watcher.Ignore) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
		if !info.IsDir() {
			if _, ok := r.registry.ForPath(root); !ok {
				return nil, fmt.Errorf("%s: %w", root, ErrNoParser)
			}
			add(root)
			continue
		}

		start := time.Now()
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip inaccessible entries
			}
			if d.IsDir() {
				if p != root && ig.Match(p, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || ig.Match(p, false) {
				return nil
			}
			if _, ok := r.registry.ForPath(p); ok {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		r.logger.Debug("scanned directory", "path", root, "elapsed", time.Since(start))
	}

	slices.Sort(files)
	return files, nil
}

func (r *Runner) parse(path string, src []byte) (*syntax.File, error) {
	p, ok := r.registry.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoParser)
	}
	f, err := p.ParseFile(path, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// each runs fn for every file with bounded parallelism and returns the
// results in input order.
func (r *Runner) each(ctx context.Context, files []string, fn func(context.Context, *FileResult)) ([]*FileResult, error) {
	results := make([]*FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i, path := range files {
		res := &FileResult{Path: path}
		results[i] = res
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(ctx, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Lint reports the offenses of each file. Per-file failures are recorded
// on the file's result; the returned error is only set when the run as a
// whole was cancelled.
func (r *Runner) Lint(ctx context.Context, files []string) ([]*FileResult, error) {
	return r.each(ctx, files, r.lintFile)
}

func (r *Runner) lintFile(_ context.Context, res *FileResult) {
	start := time.Now()
	src, err := os.ReadFile(res.Path)
	if err != nil {
		res.fail(fmt.Errorf("read file %s: %w", res.Path, err))
		return
	}
	res.Source = src

	key := cache.Key(r.fingerprint, src)
	if diags, err := r.cache.Get(key); err == nil {
		res.Diagnostics = diags
		res.Cached = true
		r.logger.Debug("linted", "path", res.Path, "offenses", len(diags), "cached", true)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("cache read failed", "path", res.Path, "error", err)
	}

	f, err := r.parse(res.Path, src)
	if err != nil {
		res.fail(err)
		return
	}
	if f.HasErrors {
		r.logger.Warn("syntax errors, results may be incomplete", "path", res.Path)
	}
	res.Diagnostics = r.engine.Run(f).Diagnostics

	if !f.HasErrors {
		if err := r.cache.Put(key, res.Diagnostics); err != nil {
			r.logger.Warn("cache write failed", "path", res.Path, "error", err)
		}
	}
	r.logger.Debug("linted", "path", res.Path, "offenses", len(res.Diagnostics), "elapsed", time.Since(start))
}

// FixOptions controls Fix.
type FixOptions struct {
	// DryRun computes fixes and diffs without writing files.
	DryRun bool
	// Confirm, when set, is asked before each changed file is written.
	// It is called sequentially in path order.
	Confirm func(path string, diff []byte) bool
}

// Fix corrects each file. Corrections are computed in parallel; writing
// happens afterwards, one file at a time.
func (r *Runner) Fix(ctx context.Context, files []string, opts FixOptions) ([]*FileResult, error) {
	results, err := r.each(ctx, files, r.fixFile)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.Err != nil || res.Fixed == nil || opts.DryRun {
			continue
		}
		if opts.Confirm != nil && !opts.Confirm(res.Path, res.Diff) {
			res.Skipped = true
			r.logger.Info("skipped", "path", res.Path)
			continue
		}
		if err := writeFile(res.Path, res.Fixed); err != nil {
			res.fail(err)
			continue
		}
		res.Written = true
		r.logger.Debug("wrote", "path", res.Path, "corrected", res.Corrected)
	}
	return results, nil
}

func (r *Runner) fixFile(_ context.Context, res *FileResult) {
	src, err := os.ReadFile(res.Path)
	if err != nil {
		res.fail(fmt.Errorf("read file %s: %w", res.Path, err))
		return
	}
	res.Source = src

	f, err := r.parse(res.Path, src)
	if err != nil {
		res.fail(err)
		return
	}
	if f.HasErrors {
		res.Diagnostics = r.engine.Run(f).Diagnostics
		res.fail(fmt.Errorf("%s: %w", res.Path, ErrSyntax))
		return
	}

	out, err := r.engine.Fix(f, func(b []byte) (*syntax.File, error) {
		return r.parse(res.Path, b)
	}, r.maxPasses)
	if err != nil {
		if out != nil {
			res.Diagnostics = out.Remaining
		}
		res.fail(err)
		return
	}
	res.Diagnostics = out.Remaining
	res.Passes = out.Passes
	res.Corrected = out.Corrected
	if !out.Changed() {
		return
	}

	final, err := r.parse(res.Path, out.Source)
	if err != nil {
		res.fail(err)
		return
	}
	if final.HasErrors {
		res.fail(fmt.Errorf("%s: %w", res.Path, ErrBrokenFix))
		return
	}

	d, err := diff.Diff(res.Path, src, out.Source)
	if err != nil {
		r.logger.Warn("diff failed", "path", res.Path, "error", err)
	}
	res.Fixed = out.Source
	res.Diff = d
	r.logger.Debug("fixed", "path", res.Path, "passes", out.Passes, "corrected", out.Corrected)
}

// writeFile replaces the file contents, keeping its permissions.
func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Summary totals a run.
type Summary struct {
	Files       int `json:"files" yaml:"files"`
	Offenses    int `json:"offenses" yaml:"offenses"`
	Correctable int `json:"correctable" yaml:"correctable"`
	Corrected   int `json:"corrected" yaml:"corrected"`
	Errors      int `json:"errors" yaml:"errors"`
}

// Summarize totals results. For fixed files, Offenses counts what remains
// and Corrected excludes declined files.
func Summarize(results []*FileResult) Summary {
	s := Summary{Files: len(results)}
	for _, res := range results {
		if res.Err != nil {
			s.Errors++
		}
		s.Offenses += len(res.Diagnostics)
		for _, d := range res.Diagnostics {
			if d.HasFix {
				s.Correctable++
			}
		}
		if res.Fixed != nil && !res.Skipped {
			s.Corrected += res.Corrected
		}
	}
	return s
}
