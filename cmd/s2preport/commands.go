package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RMahshie/s2plab/internal/config"
	"github.com/RMahshie/s2plab/internal/loader"
	"github.com/RMahshie/s2plab/pkg/analysis"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/RMahshie/s2plab/pkg/touchstone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "s2preport",
		Short:         "Inspect two-port Touchstone measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			config.SetupLogging(config.LogConfig{Level: level}, "dev")
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd(), newTraceCmd(), newConvertCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Grade S11 matching of every antenna file at a target frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for key, flag := range map[string]string{
				"DATA_DIR":       "dir",
				"FILE_PATTERN":   "pattern",
				"TARGET_FREQ_HZ": "target",
				"LOAD_WORKERS":   "workers",
			} {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cfg.Data, asJSON)
		},
	}
	cmd.Flags().String("dir", ".", "directory holding the measurement files")
	cmd.Flags().String("pattern", loader.DefaultPattern, "file name pattern")
	cmd.Flags().Float64("target", 2.4e9, "target frequency in Hz")
	cmd.Flags().Int("workers", 4, "concurrent file loads")
	cmd.Flags().Bool("json", false, "print the summary as JSON")
	return cmd
}

func runAnalyze(ctx context.Context, w io.Writer, data config.DataConfig, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := loader.Load(ctx, loader.NewDirSource(data.Dir, data.Pattern), loader.Options{Workers: data.LoadWorkers})
	if err != nil {
		return err
	}

	records := analysis.Summarize(res.Networks(), data.TargetFreqHz)
	if asJSON {
		return writeSummaryJSON(w, data.TargetFreqHz, records, res.Failed)
	}

	if len(res.Loaded) == 0 {
		fmt.Fprintf(w, "No files matching %s found in %s\n", data.Pattern, data.Dir)
	}
	if err := analysis.WriteReport(w, data.TargetFreqHz, records); err != nil {
		return err
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "\nSkipped %s: %v\n", filepath.Base(f.Path), f.Err)
	}
	return nil
}

func writeSummaryJSON(w io.Writer, targetHz float64, records []analysis.Record, failed []loader.Failure) error {
	out := struct {
		models.SummaryBody
		Failures []models.LoadFailure `json:"failures"`
	}{}
	out.TargetHz = targetHz
	out.Entries = models.NewSummaryEntries(records)
	out.Failures = make([]models.LoadFailure, 0, len(failed))
	for _, f := range failed {
		out.Failures = append(out.Failures, models.LoadFailure{
			Name:  filepath.Base(f.Path),
			Kind:  loader.FailureKind(f.Err),
			Error: f.Err.Error(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Print one S-parameter of a file for plotting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetInt("out")
			in, _ := cmd.Flags().GetInt("in")
			format, _ := cmd.Flags().GetString("format")
			return runTrace(cmd.Context(), cmd.OutOrStdout(), args[0], out, in, format)
		},
	}
	cmd.Flags().Int("out", 1, "output port")
	cmd.Flags().Int("in", 1, "input port")
	cmd.Flags().String("format", "csv", "output format (csv, json)")
	return cmd
}

func runTrace(ctx context.Context, w io.Writer, file string, out, in int, format string) error {
	n, err := loadSingle(ctx, file)
	if err != nil {
		return err
	}

	seq, err := analysis.Trace(n, out, in)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"frequency_hz", "magnitude_db", "phase_deg", "real", "imag"}); err != nil {
			return err
		}
		for p := range seq {
			if err := cw.Write([]string{
				strconv.FormatFloat(p.FrequencyHz, 'g', -1, 64),
				strconv.FormatFloat(p.MagnitudeDB, 'f', 4, 64),
				strconv.FormatFloat(p.PhaseDeg, 'f', 4, 64),
				strconv.FormatFloat(real(p.Value), 'g', -1, 64),
				strconv.FormatFloat(imag(p.Value), 'g', -1, 64),
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case "json":
		points := make([]models.TracePoint, 0, n.Len())
		for p := range seq {
			points = append(points, models.NewTracePoint(p))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models.GetTraceResponseBody{
			Parameter: fmt.Sprintf("S%d%d", out, in),
			Points:    points,
		})
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Rewrite a file with another frequency unit and data format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, _ := cmd.Flags().GetString("unit")
			format, _ := cmd.Flags().GetString("format")
			return runConvert(cmd.Context(), cmd.OutOrStdout(), args[0], unit, format)
		},
	}
	cmd.Flags().String("unit", "GHz", "frequency unit (Hz, kHz, MHz, GHz)")
	cmd.Flags().String("format", "RI", "data format (RI, MA, DB)")
	return cmd
}

func runConvert(ctx context.Context, w io.Writer, file, unit, format string) error {
	opts := touchstone.WriteOptions{}
	switch strings.ToUpper(unit) {
	case "HZ":
		opts.Unit = touchstone.Hz
	case "KHZ":
		opts.Unit = touchstone.KHz
	case "MHZ":
		opts.Unit = touchstone.MHz
	case "GHZ":
		opts.Unit = touchstone.GHz
	default:
		return fmt.Errorf("unknown unit %q", unit)
	}
	switch strings.ToUpper(format) {
	case "RI":
		opts.Format = touchstone.RI
	case "MA":
		opts.Format = touchstone.MA
	case "DB":
		opts.Format = touchstone.DB
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	n, err := loadSingle(ctx, file)
	if err != nil {
		return err
	}
	return touchstone.Write(w, n, opts)
}

func loadSingle(ctx context.Context, file string) (*touchstone.Network, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(file); err != nil {
		return nil, err
	}
	src := loader.NewDirSource(filepath.Dir(file), "")
	return loader.LoadFile(ctx, src, file)
}
