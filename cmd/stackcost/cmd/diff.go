package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stackcost/adapters/ci"
	"stackcost/adapters/report"
	"stackcost/adapters/template"
	"stackcost/core/model"
	"stackcost/core/pipeline"
	"stackcost/core/pricing"
	"stackcost/core/resolve"
	"stackcost/internal/config"
	"stackcost/internal/logging"
)

var (
	diffRegion         string
	diffEnvironment    string
	diffFormat         string
	diffOutput         string
	diffPlacement      string
	diffFailOnWarnings bool
	diffExclude        []string
)

var diffCmd = &cobra.Command{
	Use:   "diff <base-template> <target-template>",
	Short: "Report the monthly cost delta between two templates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := template.LoadFile(args[0])
		if err != nil {
			return err
		}
		target, err := template.LoadFile(args[1])
		if err != nil {
			return err
		}

		result, err := runPipeline(cmd.Context(), base, target)
		if err != nil {
			return err
		}

		body, err := report.Render(result, report.Format(diffFormat))
		if err != nil {
			return err
		}

		var sink ci.Sink = ci.WriterSink{W: os.Stdout}
		if diffOutput != "" {
			sink = ci.FileSink{Path: diffOutput}
		}
		if err := sink.Deliver(cmd.Context(), body, ci.Placement(diffPlacement)); err != nil {
			return err
		}

		// No error return here: the report explains the failure and a
		// usage dump would be noise. main exits with this code after
		// flushing logs.
		exitCode = ci.ExitCode(result.Evaluation, diffFailOnWarnings)
		return nil
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <template>",
	Short: "Estimate the full monthly cost of a single template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := template.LoadFile(args[0])
		if err != nil {
			return err
		}

		// A single template is a diff against nothing
		result, err := runPipeline(cmd.Context(), model.TemplateSnapshot{}, target)
		if err != nil {
			return err
		}

		body, err := report.Render(result, report.Format(diffFormat))
		if err != nil {
			return err
		}
		fmt.Println(body)
		return nil
	},
}

func runPipeline(ctx context.Context, base, target model.TemplateSnapshot) (*pipeline.Result, error) {
	cfg := config.Get()

	region := diffRegion
	if region == "" {
		region = cfg.Region
	}

	logger := logging.Logger

	source, err := pricing.NewAWSSource(ctx, logger)
	if err != nil {
		return nil, err
	}
	if err := source.Preflight(ctx); err != nil {
		return nil, err
	}

	store := pricing.NewStore(cfg.Cache.Directory, cfg.Cache.TTLHours, pricing.WithLogger(logger))
	client := pricing.NewClient(source, store, pricing.WithClientLogger(logger))

	excluded := append([]string{}, cfg.ExcludedTypes...)
	excluded = append(excluded, diffExclude...)

	resolver := resolve.New(client, cfg.Usage,
		resolve.WithLogger(logger),
		resolve.WithExcludedTypes(excluded),
		resolve.WithMaxConcurrency(cfg.MaxConcurrency),
		resolve.WithTimeout(time.Duration(cfg.ResolveTimeoutSeconds)*time.Second),
	)

	pipe := pipeline.New(resolver, &cfg.Thresholds, region,
		pipeline.WithLogger(logger),
		pipeline.WithEnvironment(diffEnvironment),
	)

	return pipe.Run(ctx, base, target), nil
}

func init() {
	for _, c := range []*cobra.Command{diffCmd, estimateCmd} {
		c.Flags().StringVar(&diffRegion, "region", "", "region to price resources in (default from config)")
		c.Flags().StringVar(&diffFormat, "format", "text", "report format: text, json, markdown")
		c.Flags().StringSliceVar(&diffExclude, "exclude", nil, "resource types to exclude from costing")
	}
	diffCmd.Flags().StringVar(&diffEnvironment, "environment", "", "environment for threshold selection")
	diffCmd.Flags().StringVar(&diffOutput, "output", "", "write the report to a file instead of stdout")
	diffCmd.Flags().StringVar(&diffPlacement, "placement", string(ci.PlacementReplace), "report placement: replace, append")
	diffCmd.Flags().BoolVar(&diffFailOnWarnings, "fail-on-warnings", false, "exit non-zero on warning-level breaches")
}
