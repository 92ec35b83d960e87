package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

type cacheEntryView struct {
	Query    string `json:"query"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Region   string `json:"region,omitempty"`
	CachedAt string `json:"cached_at,omitempty"`
}

func newCacheCmd(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the registry lookup cache",
	}

	cmd.AddCommand(newCacheListCmd(state), newCachePruneCmd(state), newCacheClearCmd(state))

	return cmd
}

func newCacheListCmd(state *rootState) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached registry lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd.Context(), state.cfg, state.log, wireOptions{noLookup: true})
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.cache.Entries(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			slices.Sort(keys)

			views := make([]cacheEntryView, 0, len(keys))
			for _, key := range keys {
				record := entries[key]
				view := cacheEntryView{Query: key, Name: record.Name, Code: record.Code, Region: record.Region()}
				if !record.CachedAt.IsZero() {
					view.CachedAt = record.CachedAt.Format(time.RFC3339)
				}
				views = append(views, view)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			if len(views) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "lookup cache is empty")
				return err
			}
			for _, view := range views {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", view.Query, view.Name, view.Code, view.CachedAt); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newCachePruneCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop cache entries older than the configured TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd.Context(), state.cfg, state.log, wireOptions{noLookup: true})
			if err != nil {
				return err
			}
			defer a.Close()

			pruned, err := a.cache.Prune(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired entries\n", pruned)
			return err
		},
	}
}

func newCacheClearCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached registry lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd.Context(), state.cfg, state.log, wireOptions{noLookup: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cache.Clear(cmd.Context()); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "lookup cache cleared")
			return err
		},
	}
}
