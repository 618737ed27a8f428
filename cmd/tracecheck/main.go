package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/oisee/tracecheck/pkg/batch"
	"github.com/oisee/tracecheck/pkg/cpu"
	"github.com/oisee/tracecheck/pkg/layout"
	"github.com/oisee/tracecheck/pkg/result"
	"github.com/oisee/tracecheck/pkg/trace"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1 // traces differ or could not be parsed
	exitUsage  = 2 // bad arguments, missing files, bad configuration
)

// exitError carries a process exit code up through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// failed reports a check that ran but did not pass. The report has
// already been printed, so there is no message.
func failed() error { return &exitError{code: exitFailed} }

type env struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	fs             afero.Fs
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, fs: afero.NewOsFs()})
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitUsage
}

func newRootCmd(e env) *cobra.Command {
	var (
		verbose     bool
		logFormat   string
		layoutsFile string
		noColor     bool

		log      zerolog.Logger
		registry *layout.Registry
	)

	rootCmd := &cobra.Command{
		Use:           "tracecheck",
		Short:         "Check a CPU emulator trace against a reference trace",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			log, err = newLogger(e.stderr, logFormat, verbose)
			if err != nil {
				return err
			}
			registry = layout.Default()
			if layoutsFile != "" {
				if err := registry.LoadFile(e.fs, layoutsFile); err != nil {
					return fmt.Errorf("load layouts: %w", err)
				}
				log.Debug().Str("file", layoutsFile).Strs("layouts", registry.Names()).Msg("loaded layouts")
			}
			return nil
		},
	}
	rootCmd.SetIn(e.stdin)
	rootCmd.SetOut(e.stdout)
	rootCmd.SetErr(e.stderr)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&layoutsFile, "layouts", "", "TOML or YAML file with extra or overriding layouts")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	checker := func() *batch.Checker {
		return &batch.Checker{Fs: e.fs, Layouts: registry, Stdin: e.stdin}
	}
	reportOptions := func(format result.Format) result.Options {
		return result.Options{Format: format, Color: useColor(e.stdout, noColor)}
	}

	// compare command
	var refLayout, candLayout string
	var format result.Format
	var strictLength bool

	compareCmd := &cobra.Command{
		Use:   "compare REFERENCE CANDIDATE",
		Short: "Report the first line where the candidate trace diverges from the reference",
		Long: `Compare two traces line by line and stop at the first differing state.

Either path may be "-" to read that trace from stdin. Files ending in
gzip or zstd compression are decompressed transparently.

Exit status is 0 when the traces match over their common length, 1 on a
divergence or malformed line, and 2 when the check could not run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := reportOptions(format)
			pair := batch.Pair{
				Reference:       args[0],
				Candidate:       args[1],
				ReferenceLayout: refLayout,
				CandidateLayout: candLayout,
			}
			log.Debug().Str("reference", pair.Reference).Str("reference_layout", refLayout).
				Str("candidate", pair.Candidate).Str("candidate_layout", candLayout).Msg("comparing traces")

			rep, err := checker().Check(pair)
			if err != nil {
				return err
			}
			log.Debug().Str("result", rep.Outcome.Kind.String()).Int("compared", rep.Outcome.Compared).Msg("comparison finished")

			if err := result.Write(e.stdout, rep, opts); err != nil {
				return err
			}
			if !rep.Outcome.Passed(strictLength) {
				return failed()
			}
			return nil
		},
	}
	compareCmd.Flags().StringVar(&refLayout, "ref-layout", layout.Reference, "Layout of the reference trace")
	compareCmd.Flags().StringVar(&candLayout, "cand-layout", layout.Candidate, "Layout of the candidate trace")
	formatFlag(compareCmd.Flags(), &format, result.FormatText, "Report format",
		result.FormatText, result.FormatTable, result.FormatJSON)
	compareCmd.Flags().BoolVar(&strictLength, "strict-length", false, "Fail when the traces differ in length")

	// parse command
	var parseLayout string

	parseCmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the canonical state of every line of a trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := registry.Lookup(parseLayout)
			if err != nil {
				return err
			}
			var rc io.ReadCloser
			if args[0] == batch.StdinPath {
				rc, err = trace.Decompress(e.stdin)
			} else {
				rc, err = trace.OpenFile(e.fs, args[0])
			}
			if err != nil {
				return err
			}
			defer rc.Close()

			r := trace.NewReader(rc, args[0], l)
			for {
				s, err := r.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					fmt.Fprintln(e.stdout, err)
					return failed()
				}
				fmt.Fprintf(e.stdout, "%6d  %s  %s\n", r.Line(), s, cpu.FlagString(s.P))
			}
			log.Debug().Str("trace", r.Name()).Str("layout", r.Layout().Name).Int("lines", r.Line()).Msg("trace parsed")
			return nil
		},
	}
	parseCmd.Flags().StringVarP(&parseLayout, "layout", "l", layout.Reference, "Layout of the trace")

	// batch command
	var workers int
	var batchFormat result.Format
	var batchStrict bool

	batchCmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Check every trace pair listed in a TOML or YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := reportOptions(batchFormat)
			opts.StrictLength = batchStrict
			m, err := batch.LoadManifest(e.fs, args[0])
			if err != nil {
				return err
			}
			if err := m.Validate(registry); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			pool := batch.NewWorkerPool(workers, checker(), log)
			pool.StrictLength = batchStrict
			log.Info().Int("pairs", len(m.Pairs)).Int("workers", pool.NumWorkers).Msg("starting batch")

			pool.Run(cmd.Context(), m.Pairs)

			checked, failedPairs := pool.Stats()
			log.Info().Int64("checked", checked).Int64("failed", failedPairs).Msg("batch finished")

			if err := result.WriteSummary(e.stdout, pool.Results.Entries(), opts); err != nil {
				return err
			}
			if failedPairs > 0 {
				return failed()
			}
			return nil
		},
	}
	batchCmd.Flags().IntVar(&workers, "workers", 0, "Number of workers (0 = NumCPU)")
	formatFlag(batchCmd.Flags(), &batchFormat, result.FormatTable, "Summary format",
		result.FormatTable, result.FormatJSON)
	batchCmd.Flags().BoolVar(&batchStrict, "strict-length", false, "Fail pairs whose traces differ in length")

	// layouts command
	layoutsCmd := &cobra.Command{
		Use:   "layouts",
		Short: "List the known trace layouts and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(e.stdout)
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Layout", "A", "X", "Y", "P", "SP", "Trim", "Min width"})
			for _, l := range registry.Layouts() {
				row := []string{l.Name}
				for _, f := range cpu.Fields {
					row = append(row, l.Column(f).String())
				}
				row = append(row, strconv.FormatBool(l.Trim), strconv.Itoa(l.MinWidth()))
				table.Append(row)
			}
			table.Render()
			return nil
		},
	}

	rootCmd.AddCommand(compareCmd, parseCmd, batchCmd, layoutsCmd)
	return rootCmd
}
