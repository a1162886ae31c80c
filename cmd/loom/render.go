package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/prompt"
)

// renderCmd renders a template file locally; no model call is made.
var renderCmd = &cobra.Command{
	Use:   "render <template.txt>",
	Short: "Render a prompt template with --var inputs, without any model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}

		tmpl, err := prompt.New(string(data))
		if err != nil {
			return err
		}

		vars, err := parseVars(varFlags)
		if err != nil {
			return err
		}

		text, err := tmpl.Format(vars)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
