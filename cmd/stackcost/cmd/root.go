// Package cmd provides the CLI commands for stackcost.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stackcost/internal/config"
	"stackcost/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stackcost",
	Short: "Estimate the monthly cost impact of template changes",
	Long: `stackcost compares two infrastructure template snapshots and reports
the itemized monthly cost delta, gated against configurable thresholds
for CI pipelines.

Examples:
  stackcost diff base.template.json target.template.json
  stackcost diff --environment prod --format markdown base.yaml target.yaml
  stackcost estimate template.json`,
}

// exitCode is set by commands whose outcome is an exit status rather
// than an error, so main can flush logs before the process ends
var exitCode int

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode returns the exit status requested by the executed command
func ExitCode() int {
	return exitCode
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stackcost.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("stackcost version 0.1.0")
	},
}
