package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/vocabdrill/internal/excel"
)

func (a *app) importCommand() *cobra.Command {
	var builtin bool
	importC := excel.DefaultImportConfig()
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Track every word in an Excel or CSV file",
		Args: func(cmd *cobra.Command, args []string) error {
			if builtin {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				result *excel.ImportResult
				err    error
			)
			if builtin {
				result, err = excel.ImportBuiltin(cmd.Context(), a.svc)
			} else {
				importC.FilePath = args[0]
				result, err = excel.ImportWords(cmd.Context(), a.svc, importC)
			}
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d rows: %d created, %d already tracked, %d skipped\n",
				result.TotalProcessed, result.Created, result.Existing, result.Skipped)
			if result.Unsaved > 0 {
				fmt.Fprintf(out, "%d word(s) could not be saved\n", result.Unsaved)
			}
			for _, msg := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&builtin, "builtin", false, "Import the built-in starter word list")
	cmd.Flags().StringVar(&importC.WordColumn, "column", importC.WordColumn, "Column holding the word")
	cmd.Flags().StringVar(&importC.SheetName, "sheet", importC.SheetName, "Excel sheet name")
	cmd.Flags().IntVar(&importC.StartRow, "start-row", importC.StartRow, "First row to import (1-based)")
	return cmd
}
