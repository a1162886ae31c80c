package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/loomkit/loom"
	"github.com/loomkit/loom/core"
	"github.com/loomkit/loom/logging"
	"github.com/loomkit/loom/pipeline"
)

// runCmd executes a pipeline definition against the configured provider.
var runCmd = &cobra.Command{
	Use:   "run <pipeline.yaml>",
	Short: "Execute a pipeline from a YAML file",
	Long: `Execute a declarative pipeline against the configured model provider.

Input variables declared by the pipeline are supplied with repeated
--var flags. The final state, including every step's output, is printed
as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		vars, err := parseVars(varFlags)
		if err != nil {
			return err
		}

		p, err := pipeline.Load(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout*time.Duration(len(p.Steps)))
			defer cancel()
		}

		mdl, err := loom.NewModel(ctx, cfg)
		if err != nil {
			return err
		}

		runnable, err := p.Build(mdl)
		if err != nil {
			return err
		}

		logger := logging.NewZapLogger(cfg.LogLevel, cfg.LogFormat)
		run := loom.NewRun(cfg, logger)
		ctx = core.WithRun(ctx, run)

		out, err := runnable.Invoke(ctx, core.Values(vars))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(normalize(out), 2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// normalize converts Values to a plain map so the JSON writer renders it as
// an object.
func normalize(out any) any {
	if values, ok := out.(core.Values); ok {
		return map[string]any(values)
	}
	return out
}
