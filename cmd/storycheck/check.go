package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/storycheck/config"
	"github.com/c360studio/storycheck/export"
	"github.com/c360studio/storycheck/narrative"
	narrativeingester "github.com/c360studio/storycheck/processor/narrative-ingester"
)

func newCheckCmd(logLevel *string) *cobra.Command {
	var (
		narrativeArg string
		backstoryArg string
		narrativeID  string
		formatArg    string
		outputPath   string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one narrative against a backstory",
		Long: `Check runs a single consistency check and prints the report.

The narrative may be a local file, an https:// URL, or "-" for stdin.
The backstory may be a file path or literal backstory text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(*logLevel, narrativeArg, backstoryArg, narrativeID, formatArg, outputPath)
		},
	}

	cmd.Flags().StringVarP(&narrativeArg, "narrative", "n", "", "Narrative file, https:// URL, or - for stdin (required)")
	cmd.Flags().StringVarP(&backstoryArg, "backstory", "b", "", "Backstory file or literal text (required)")
	cmd.Flags().StringVar(&narrativeID, "id", "", "Narrative ID override")
	cmd.Flags().StringVarP(&formatArg, "format", "f", "", "Report format (text, json, yaml)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	_ = cmd.MarkFlagRequired("narrative")
	_ = cmd.MarkFlagRequired("backstory")

	return cmd
}

func runCheck(logLevel, narrativeArg, backstoryArg, narrativeID, formatArg, outputPath string) error {
	logger := newLogger(logLevel)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	backstory, err := resolveBackstory(backstoryArg)
	if err != nil {
		return err
	}

	req := narrative.CheckRequest{
		NarrativeID: narrativeID,
		Backstory:   backstory,
	}

	switch {
	case narrativeArg == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		req.Text = string(data)
	case strings.HasPrefix(narrativeArg, "http://"), strings.HasPrefix(narrativeArg, "https://"):
		req.URL = narrativeArg
	default:
		req.Path = narrativeArg
	}

	fetcher := narrativeingester.NewFetcher(
		cfg.Fetch.Timeout,
		appName+"/"+Version,
		cfg.Fetch.MaxBodySize,
	)

	handler, err := narrativeingester.NewHandler(fetcher, cfg.Chunker.Size, logger)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	report, err := handler.Check(context.Background(), req)
	if err != nil {
		return err
	}

	if formatArg == "" {
		formatArg = cfg.Export.Format
	}
	format, err := export.ParseFormat(formatArg)
	if err != nil {
		return err
	}

	rendered, err := export.NewExporter().Export(report.Document, format)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	} else {
		fmt.Println(rendered)
	}

	// Non-zero exit lets scripts gate on the decision.
	if !report.Document.Consistent {
		os.Exit(1)
	}
	return nil
}

// resolveBackstory treats the argument as a file path when one exists,
// and as literal backstory text otherwise.
func resolveBackstory(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("backstory is required")
	}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("read backstory: %w", err)
		}
		return string(data), nil
	}
	return arg, nil
}
