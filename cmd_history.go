package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajitashwath/qr-code-generator/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or edit the generation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remembered texts, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		records := a.history.List()
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tWHEN\tSIZE\tCOLORS\tTEXT")
		for i, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s/%s\t%s\n", i, when(r), r.Size, r.LightColor, r.DarkColor, r.Text)
		}
		return tw.Flush()
	},
}

// when renders a record's timestamp in local time, or "-" if it is malformed.
func when(r history.Record) string {
	t := r.Time()
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove [index]",
	Short: "Remove one record by its list position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("index must be an integer: %w", err)
		}
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.history.Remove(idx)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.history.Clear()
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyRemoveCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
