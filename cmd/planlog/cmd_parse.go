package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juliosaraiva/planlog/internal/emitter"
	"github.com/juliosaraiva/planlog/internal/logging"
	"github.com/juliosaraiva/planlog/internal/parser"
	"github.com/juliosaraiva/planlog/internal/rundir"
)

type parseFlags struct {
	format  string
	workers int
	stdin   bool
	dryRun  bool
	print   bool
	strict  bool
	pretty  bool
	fields  []string

	timestamp  bool
	omitFailed bool
}

func newParseCmd(a *app) *cobra.Command {
	var fl parseFlags

	cmd := &cobra.Command{
		Use:   "parse [dir...]",
		Short: "Parse run logs and write each run's properties",
		Long: "parse finds every run directory (one containing the run log) below the\n" +
			"given directories, parses the log and merges the attributes into the\n" +
			"run's properties file. Attributes already present are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fl.stdin {
				return runParseStdin(a, fl, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			return runParseDirs(cmd, a, fl, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&fl.format, "format", "f", "", "Force log format (auto-detect if empty); see 'planlog formats'")
	f.IntVarP(&fl.workers, "workers", "j", 0, "Runs parsed concurrently (0 uses the config value)")
	f.BoolVar(&fl.stdin, "stdin", false, "Parse one log from stdin and print its record")
	f.BoolVar(&fl.dryRun, "dry-run", false, "Parse without writing properties files")
	f.BoolVar(&fl.print, "print", false, "Print each run's record as NDJSON")
	f.BoolVar(&fl.strict, "strict", false, "Exit with an error if any run failed to parse")
	f.BoolVar(&fl.pretty, "pretty", false, "Pretty-print JSON output")
	f.StringSliceVarP(&fl.fields, "fields", "F", nil, "Only print these attributes (comma-separated)")
	f.BoolVar(&fl.timestamp, "timestamp", false, "Add _ingestTime to printed records")
	f.BoolVar(&fl.omitFailed, "omit-failed", false, "Do not print records with unexplained errors")
	return cmd
}

func (fl parseFlags) emitOptions() emitter.Options {
	return emitter.Options{
		Pretty:       fl.pretty,
		Fields:       fl.fields,
		AddTimestamp: fl.timestamp,
		OmitFailed:   fl.omitFailed,
	}
}

func (a *app) registry(format string) (*parser.Registry, error) {
	if format == "" {
		format = a.cfg.Format
	}
	if format == "" {
		return parser.NewRegistry(), nil
	}

	// Fail fast instead of once per run.
	r := parser.NewRegistry(parser.WithForcedFormat(format))
	if r.GetParser(format) == nil {
		return nil, fmt.Errorf("unknown format %q; use 'planlog formats' to list them", format)
	}
	return r, nil
}

func runParseStdin(a *app, fl parseFlags, in io.Reader, out io.Writer) error {
	reg, err := a.registry(fl.format)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	rec, parseErr := reg.Parse(string(data))
	if rec != nil {
		emit := emitter.New(out, fl.emitOptions())
		if err := emit.Emit(rec); err != nil {
			return err
		}
		if err := emit.Close(); err != nil {
			return err
		}
	}
	return parseErr
}

func runParseDirs(cmd *cobra.Command, a *app, fl parseFlags, roots []string) error {
	log := logging.Component(a.logger, "parse")

	reg, err := a.registry(fl.format)
	if err != nil {
		return err
	}

	var dirs []string
	for _, root := range roots {
		found, err := rundir.Discover(root, a.cfg.LogFile)
		if err != nil {
			return err
		}
		dirs = append(dirs, found...)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no %s found below %v", a.cfg.LogFile, roots)
	}

	workers := fl.workers
	if workers <= 0 {
		workers = a.cfg.WorkerCount()
	}
	log.Info("parsing runs", zap.Int("runs", len(dirs)), zap.Int("workers", workers))

	results, err := rundir.Process(cmd.Context(), dirs, rundir.Options{
		Registry:       reg,
		LogFile:        a.cfg.LogFile,
		PropertiesFile: a.cfg.PropertiesFile,
		Workers:        workers,
		DryRun:         fl.dryRun,
		InfoAttributes: a.cfg.InfoAttributes,
		Logger:         logging.Component(a.logger, "rundir"),
	})
	if err != nil {
		return err
	}

	if fl.print {
		emit := emitter.New(cmd.OutOrStdout(), fl.emitOptions())
		for _, r := range results {
			if r.Record == nil {
				continue
			}
			if err := emit.Emit(r.Record); err != nil {
				return err
			}
		}
		if err := emit.Close(); err != nil {
			return err
		}
	}

	sum := rundir.Summarize(results)
	log.Info("done", zap.Int("runs", sum.Runs), zap.Int("failed", sum.Failed))
	if fl.strict && sum.Failed > 0 {
		return fmt.Errorf("%d of %d runs failed to parse", sum.Failed, sum.Runs)
	}
	return nil
}
