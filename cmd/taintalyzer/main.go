// Command taintalyzer is a static taint-analysis scanner for C, PHP and
// Python source, the Go port of main.py's docopt-driven CLI (spec §6).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taintalyzing/engine/pkg/config"
	"github.com/taintalyzing/engine/pkg/driver"
	"github.com/taintalyzing/engine/pkg/report"
)

var Version = "1.0.0"

func newRootCmd() *cobra.Command {
	cfg := config.New()
	var outputFile string
	var outputFormat string

	cmd := &cobra.Command{
		Use:     "taintalyzer PATH",
		Short:   "Static taint analysis for C, PHP and Python source",
		Version: Version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Path = args[0]

			switch outputFormat {
			case "json":
				cfg.Format = config.FormatJSON
			case "sarif":
				cfg.Format = config.FormatSARIF
			default:
				cfg.Format = config.FormatText
			}
			cfg.Output = outputFile

			log := newLogger(cfg)

			results, err := driver.Run(cfg, log)
			if err != nil {
				return err
			}

			out := os.Stdout
			if cfg.Output != "" {
				f, err := os.Create(cfg.Output)
				if err != nil {
					return fmt.Errorf("opening output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			fileResults := make([]report.FileResult, 0, len(results))
			for _, r := range results {
				fileResults = append(fileResults, report.FileResult{Module: r.Module, File: r.File, Methods: r.Methods})
			}
			rep := report.New(fileResults, cfg.Complexity, cfg.Indirection, time.Now())

			switch cfg.Format {
			case config.FormatJSON:
				return rep.WriteJSON(out)
			case config.FormatSARIF:
				return rep.WriteSARIF(out)
			default:
				return rep.WriteText(out)
			}
		},
	}

	cmd.Flags().IntVarP(&cfg.Indirection, "indirection", "i", config.DefaultIndirection, "Max levels of indirection before sanitization is ignored")
	cmd.Flags().IntVarP(&cfg.Complexity, "complexity", "c", config.DefaultComplexity, "Minimum cyclomatic complexity before a method gets reported")
	cmd.Flags().StringVarP(&cfg.Fallback, "fallback", "f", "", "Fall back to this module if automatic detection fails")
	cmd.Flags().BoolVarP(&cfg.Lazy, "lazy", "l", false, "Assume a single path through each method")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output report to this file instead of stdout")
	cmd.Flags().StringVar(&outputFormat, "output-format", "text", "Report format: text, json or sarif")
	cmd.Flags().StringArrayVarP(&cfg.Exclude, "exclude", "x", nil, "Exclude files matching this regular expression (repeatable)")
	cmd.Flags().StringVar(&cfg.ModulesRoot, "modules", cfg.ModulesRoot, "Directory containing module rule/grammar assets")
	cmd.Flags().BoolVarP(&cfg.Silent, "silent", "s", false, "Don't print warnings")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", "", "Persist and reuse per-file analysis results under this directory")

	return cmd
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case cfg.Silent:
		level = slog.LevelError
	case cfg.Verbose:
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
