package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cmass-sales/visitlog/internal/adapters/export"
	"github.com/cmass-sales/visitlog/internal/adapters/render/summary"
	"github.com/cmass-sales/visitlog/internal/application"
	"github.com/spf13/cobra"
)

const previewLimit = 5

type convertOptions struct {
	input      string
	outCSV     string
	outJSON    string
	outEntries string
	noLookup   bool
	asJSON     bool
}

func newConvertCmd(state *rootState) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Extract visit records from a KakaoTalk transcript",
		Long: "convert parses an exported KakaoTalk transcript, extracts one record per reported subject and " +
			"writes the requested outputs. Without any output path the first entries and visits are previewed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, state, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "KakaoTalk exported text file")
	cmd.Flags().StringP("staff", "s", "", "Staff name recorded on the payload and used when no reporter is found")
	cmd.Flags().StringVar(&opts.outCSV, "out-csv", "", "Output CSV path")
	cmd.Flags().StringVar(&opts.outJSON, "out-json", "", "Output aggregated JSON path")
	cmd.Flags().StringVar(&opts.outEntries, "out-entries", "", "Output per-entry JSON Lines path")
	cmd.Flags().BoolVar(&opts.noLookup, "no-lookup", false, "Skip network registry lookups (cache and snapshots still apply)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Render the run summary as JSON")
	_ = cmd.MarkFlagRequired("input")
	_ = state.viper.BindPFlag("staff", cmd.Flags().Lookup("staff"))

	return cmd
}

func runConvert(cmd *cobra.Command, state *rootState, opts convertOptions) error {
	lines, err := readTranscript(opts.input)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := wireApp(ctx, state.cfg, state.log, wireOptions{noLookup: opts.noLookup})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			state.log.Warn().Err(closeErr).Msg("close application resources")
		}
	}()

	staff := strings.TrimSpace(state.cfg.Staff)
	pipeline := a.pipeline(staff)

	var result application.Result
	run := func(ctx context.Context) error {
		var runErr error
		result, runErr = pipeline.Run(ctx, lines)
		return runErr
	}

	if opts.asJSON {
		err = run(ctx)
	} else {
		err = runWithSpinner(ctx, cmd.ErrOrStderr(), "Extracting visits...", run)
	}
	if err != nil {
		return fmt.Errorf("convert transcript: %w", err)
	}

	outputs, err := writeOutputs(opts, result, staff)
	if err != nil {
		return err
	}

	report := summary.Report{
		Input:         opts.input,
		RunID:         result.RunID,
		MessageCount:  result.MessageCount,
		Entries:       result.Entries,
		Visits:        result.Visits,
		Outputs:       outputs,
		LookupEnabled: a.lookupEnabled,
	}

	if opts.asJSON {
		return writeJSON(cmd.OutOrStdout(), newConvertSummary(report))
	}

	rendered, err := summary.Render(report)
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
		return err
	}

	if len(outputs) == 0 {
		return export.WritePreview(cmd.OutOrStdout(), result.Entries, result.Visits, previewLimit)
	}

	return nil
}

func readTranscript(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("input file not found: %s", path)
		}
		return nil, fmt.Errorf("read input file: %w", err)
	}

	text := strings.ToValidUTF8(string(data), "\uFFFD")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return strings.Split(text, "\n"), nil
}

func writeOutputs(opts convertOptions, result application.Result, staff string) ([]summary.Output, error) {
	var outputs []summary.Output

	if opts.outCSV != "" {
		if err := export.WriteFile(opts.outCSV, func(w io.Writer) error {
			return export.WriteCSV(w, result.Entries)
		}); err != nil {
			return nil, fmt.Errorf("write csv output: %w", err)
		}
		outputs = append(outputs, summary.Output{Kind: "csv", Path: opts.outCSV, Count: len(result.Entries)})
	}

	if opts.outJSON != "" {
		if err := export.WriteFile(opts.outJSON, func(w io.Writer) error {
			return export.WritePayload(w, result.Payload(staff))
		}); err != nil {
			return nil, fmt.Errorf("write aggregated json output: %w", err)
		}
		outputs = append(outputs, summary.Output{Kind: "json", Path: opts.outJSON, Count: len(result.Visits)})
	}

	if opts.outEntries != "" {
		if err := export.WriteFile(opts.outEntries, func(w io.Writer) error {
			return export.WriteEntries(w, result.Entries)
		}); err != nil {
			return nil, fmt.Errorf("write entries output: %w", err)
		}
		outputs = append(outputs, summary.Output{Kind: "entries", Path: opts.outEntries, Count: len(result.Entries)})
	}

	return outputs, nil
}

type convertSummary struct {
	RunID            string          `json:"run_id"`
	Input            string          `json:"input"`
	Messages         int             `json:"messages"`
	Entries          int             `json:"entries"`
	Visits           int             `json:"visits"`
	RegistryCoverage float64         `json:"registry_coverage"`
	LookupEnabled    bool            `json:"lookup_enabled"`
	Outputs          []convertOutput `json:"outputs"`
}

type convertOutput struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func newConvertSummary(report summary.Report) convertSummary {
	outputs := make([]convertOutput, 0, len(report.Outputs))
	for _, out := range report.Outputs {
		outputs = append(outputs, convertOutput(out))
	}

	return convertSummary{
		RunID:            report.RunID,
		Input:            report.Input,
		Messages:         report.MessageCount,
		Entries:          len(report.Entries),
		Visits:           len(report.Visits),
		RegistryCoverage: report.RegistryCoverage(),
		LookupEnabled:    report.LookupEnabled,
		Outputs:          outputs,
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
