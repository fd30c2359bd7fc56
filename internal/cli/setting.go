package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) settingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read and write preferences",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a preference as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok := a.svc.GetSetting(cmd.Context(), args[0])
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not set\n", args[0])
				return nil
			}
			data, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encode setting: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Long: `Store a preference. The value is parsed as JSON, so 10, true and
["a","b"] keep their types; anything that is not valid JSON is stored as a string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.svc.PutSetting(cmd.Context(), args[0], parseSettingValue(args[1]))
			return nil
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func parseSettingValue(raw string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
