package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitashwath/qr-code-generator/settings"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write theme, defaults and history to a JSON file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.settings.Export()
		if err != nil {
			return err
		}
		if exportOut == "-" {
			_, err := cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		}
		out := exportOut
		if out == "" {
			out = settings.ExportFilename(time.Now())
		}
		if err := os.WriteFile(out, doc, 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings exported to %s\n", out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Apply a settings file written by export",
	Long: `Apply a settings file written by export.

Each field is applied on its own: missing or malformed fields are skipped and
reported. A history in the file replaces the current one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.settings.Import(data)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Applied: %s\n", joinOrNone(res.Applied))
		if len(res.Skipped) > 0 {
			fmt.Fprintf(w, "Skipped: %s\n", strings.Join(res.Skipped, ", "))
		}
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:       "theme [toggle|light|dark]",
	Short:     "Show or change the theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"toggle", "light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			if args[0] == "toggle" {
				_, err = a.settings.ToggleTheme()
			} else {
				err = a.settings.SetTheme(settings.Theme(args[0]))
			}
			if err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.settings.Theme())
		return nil
	},
}

func joinOrNone(fields []string) string {
	if len(fields) == 0 {
		return "none"
	}
	return strings.Join(fields, ", ")
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, - for stdout (default qr-settings-<timestamp>.json)")
	rootCmd.AddCommand(exportCmd, importCmd, themeCmd)
}
