package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/vocabdrill/pkg/models"
)

const timeLayout = time.RFC3339

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <word>...",
		Short: "Start tracking words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, id := range args {
				item, state := a.svc.EnsureItem(cmd.Context(), id)
				fmt.Fprintf(out, "%s\t%s\tdue %s\n", item.ID, state, formatDue(item))
			}
			return nil
		},
	}
}

func (a *app) gradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grade <word> <quality>",
		Short: "Record a review graded 0 (blackout) to 5 (perfect)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quality, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quality must be a number from 0 to 5, got %q", args[1])
			}
			item, err := a.svc.SubmitGrade(cmd.Context(), args[0], quality)
			if err != nil {
				return err
			}
			return writeItems(cmd.OutOrStdout(), []models.ReviewItem{item})
		},
	}
}

func (a *app) dueCommand() *cobra.Command {
	var (
		asOf    string
		asJSON  bool
		limitTo int
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List words due for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := a.opts.Now()
			if asOf != "" {
				t, err := time.Parse(timeLayout, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of %q, want RFC3339: %w", asOf, err)
				}
				at = t
			}

			items := a.svc.QueryDueItems(cmd.Context(), at)
			if limitTo > 0 && len(items) > limitTo {
				items = items[:limitTo]
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to review.")
				return nil
			}
			return writeItems(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference instant in RFC3339 (default now)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	cmd.Flags().IntVarP(&limitTo, "limit", "n", 0, "Show at most n words")
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tracked words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := a.svc.AllItems(cmd.Context())
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return writeItems(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func (a *app) statsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show learning statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := a.svc.Stats(cmd.Context(), a.opts.Now())
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Words:\t%d\n", stats.Total)
			fmt.Fprintf(w, "Due now:\t%d\n", stats.Due)
			fmt.Fprintf(w, "Mastered:\t%d\n", stats.Mastered)
			fmt.Fprintf(w, "Average easiness:\t%.2f\n", stats.AverageEasiness)
			if stats.NextDue != nil {
				fmt.Fprintf(w, "Next review:\t%s\n", stats.NextDue.UTC().Format(timeLayout))
			}
			if a.store != nil {
				fmt.Fprintf(w, "Storage:\t%s\n", a.store.DriverName())
			} else {
				fmt.Fprintln(w, "Storage:\tdisabled")
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func writeItems(out io.Writer, items []models.ReviewItem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORD\tINTERVAL\tREPETITION\tEF\tDUE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%s\n",
			item.ID, item.Interval, item.Repetition, item.EasinessFactor, formatDue(item))
	}
	return w.Flush()
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func formatDue(item models.ReviewItem) string {
	return item.DueTime().UTC().Format(timeLayout)
}
