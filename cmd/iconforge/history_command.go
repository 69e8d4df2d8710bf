package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"iconforge/internal/config"
	"iconforge/internal/runstore"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var source string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent export runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *runstore.Store) error {
				filter := strings.TrimSpace(source)
				if filter != "" {
					expanded, err := config.ExpandPath(filter)
					if err != nil {
						return err
					}
					filter = expanded
				}
				runs, err := store.Recent(cmd.Context(), filter, limit)
				if err != nil {
					return err
				}
				if asJSON {
					if runs == nil {
						runs = []runstore.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						run.SourcePath,
						string(run.Status),
						fmt.Sprintf("%d/%d", run.Exported, run.Planned),
						run.Duration().Round(time.Millisecond).String(),
						run.ErrorKind,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Source", "Status", "Files", "Duration", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, formatStats(stats))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Only list runs of this source document")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "List the files written by one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *runstore.Store) error {
				run, err := resolveRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				exports, err := store.Exports(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s: %s (%s)\n", run.ID, run.SourcePath, run.Status)
				if run.Label != "" {
					fmt.Fprintf(out, "Label: %s\n", run.Label)
				}
				if run.ErrorMessage != "" {
					fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
				}
				for _, w := range run.Warnings {
					fmt.Fprintf(out, "Warning: %s\n", w)
				}
				rows := make([][]string, 0, len(exports))
				for _, e := range exports {
					size := "-"
					if e.Size != nil {
						size = strconv.Itoa(*e.Size)
					}
					rows = append(rows, []string{e.Unit, e.Variant, e.ColorSpace, e.Format, size, e.Path})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Unit", "Variant", "Space", "Format", "Size", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *runstore.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "Number of newest runs to keep")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*runstore.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// resolveRun accepts a full run id or the short prefix printed by history.
func resolveRun(cmd *cobra.Command, store *runstore.Store, id string) (*runstore.Run, error) {
	id = strings.TrimSpace(id)
	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	runs, err := store.Recent(cmd.Context(), "", 1000)
	if err != nil {
		return nil, err
	}
	var match *runstore.Run
	for i := range runs {
		if !strings.HasPrefix(runs[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run id %q is ambiguous", id)
		}
		match = &runs[i]
	}
	if match == nil {
		return nil, errors.New("run not found: " + id)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStats(stats map[runstore.Status]int) string {
	keys := make([]string, 0, len(stats))
	for status := range stats {
		keys = append(keys, string(status))
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", key, stats[runstore.Status(key)]))
	}
	return "All runs: " + strings.Join(parts, ", ")
}
