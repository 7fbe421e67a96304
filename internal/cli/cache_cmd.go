package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imyousuf/arelcop/internal/cache"
	"github.com/imyousuf/arelcop/internal/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the lint result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove all cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(dir string, s *cache.Store) error {
				n, err := s.Len()
				if err != nil {
					return err
				}
				if err := s.Clear(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached results from %s\n", n, dir)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the cache location and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(dir string, s *cache.Store) error {
				n, err := s.Len()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cached results\n", dir, n)
				return nil
			})
		},
	})
	return cmd
}

func withCache(fn func(dir string, s *cache.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	s, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cfg.Cache.Dir, s)
}
