package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/config"
)

var (
	// Global flags.
	configFile string
	varFlags   []string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Compose prompts, models and parsers into runnable chains",
	Long: `Loom is a toolkit for building LLM applications in Go.

The CLI executes declarative YAML pipelines against a configured model
provider, renders prompt templates locally, and prints the resolved
runtime configuration.`,
	Version:       loom.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: loom.yaml in the working directory)")
	rootCmd.PersistentFlags().StringArrayVar(&varFlags, "var", nil, "Input variable as key=value (repeatable)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves runtime configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(func(o *config.Options) {
		o.ConfigFile = configFile
	})
}

// parseVars turns repeated --var key=value flags into a map.
func parseVars(flags []string) (map[string]any, error) {
	vars := make(map[string]any, len(flags))
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", flag)
		}
		vars[key] = value
	}
	return vars, nil
}
