package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/vocabdrill/internal/spaced_repetition"
)

func (a *app) reviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review due words interactively",
		Long: `Review walks through the words due now. Type a grade from 0 to 5
for each word, or q to stop. Each answer is saved immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			ss := a.svc.StartSession(ctx, a.opts.Now())
			if ss.Len() == 0 {
				fmt.Fprintln(out, "Nothing to review.")
				return nil
			}
			fmt.Fprintf(out, "%d word(s) to review (0-5, q to quit)\n", ss.Len())

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				item, ok := ss.Current()
				if !ok {
					break
				}
				fmt.Fprintf(out, "\n%s > ", item.ID)
				if !scanner.Scan() {
					break
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "q" || input == "quit" {
					break
				}

				quality, err := strconv.Atoi(input)
				if err != nil {
					fmt.Fprintln(out, "enter a grade from 0 to 5")
					continue
				}
				next, err := ss.Answer(ctx, quality)
				if errors.Is(err, spaced_repetition.ErrInvalidGrade) {
					fmt.Fprintln(out, "enter a grade from 0 to 5")
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "next review in %d day(s)\n", next.Interval)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read answers: %w", err)
			}

			fmt.Fprintf(out, "\nReviewed %d of %d, %d left\n", len(ss.Results()), ss.Len(), ss.Remaining())
			return nil
		},
	}
}
