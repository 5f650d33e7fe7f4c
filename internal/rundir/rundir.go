// Package rundir parses the run directories of an experiment and stores
// each run's record next to its log.
package rundir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/juliosaraiva/planlog/internal/emitter"
	"github.com/juliosaraiva/planlog/internal/parser"
	"github.com/juliosaraiva/planlog/internal/reader"
)

// KeyRunDir records where a run's files live.
const KeyRunDir = "run_dir"

// parseErrorPrefix marks the unexplained_errors entries written by Process,
// so a later parse can replace them.
const parseErrorPrefix = "parse: "

// ExternalKeys are set by the experiment, never by a log parser.
var ExternalKeys = []string{"domain", "problem", "algorithm", KeyRunDir}

// Options configures Process.
type Options struct {
	Registry *parser.Registry

	// LogFile and PropertiesFile are file names inside each run directory.
	LogFile        string
	PropertiesFile string

	// Workers bounds the number of runs parsed concurrently.
	Workers int

	// DryRun parses without writing properties files.
	DryRun bool

	// InfoAttributes are kept from the properties file in addition to
	// ExternalKeys. Every other parsed attribute is replaced on each parse.
	InfoAttributes []string

	Logger *zap.Logger
}

// Result is the outcome for one run directory.
type Result struct {
	Dir    string
	Record parser.Record

	// Kept lists parsed attributes that were not stored because the run
	// already had them as external or info attributes.
	Kept []string

	// Err is the parse failure, also recorded under unexplained_errors.
	Err error
}

// Summary counts run outcomes.
type Summary struct {
	Runs   int
	Failed int
}

// Summarize counts the failed results.
func Summarize(results []Result) Summary {
	s := Summary{Runs: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
		}
	}
	return s
}

// Discover returns the directories under root that contain logFile, sorted.
func Discover(root, logFile string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == logFile {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover runs: %w", err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Process parses every run directory, at most opts.Workers at a time.
// A failing run does not stop the others; its error is stored in its Result
// and in its properties. Results are returned in the order of dirs.
// Cancelling ctx stops scheduling further runs and returns ctx.Err(); runs
// that never started carry ctx.Err() in their Result.
func Process(ctx context.Context, dirs []string, opts Options) ([]Result, error) {
	if opts.Registry == nil {
		opts.Registry = parser.NewRegistry()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]Result, len(dirs))
	for i, dir := range dirs {
		results[i].Dir = dir
	}
	started := make([]bool, len(dirs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, dir := range dirs {
		if gCtx.Err() != nil {
			break
		}
		started[i] = true
		i, dir := i, dir
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				results[i] = Result{Dir: dir, Err: err}
				return err
			}
			results[i] = processRun(dir, opts, logger)
			return nil
		})
	}
	err := g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		for i := range results {
			if !started[i] {
				results[i].Err = ctxErr
			}
		}
		return results, ctxErr
	}
	return results, err
}

func processRun(dir string, opts Options, logger *zap.Logger) Result {
	log := logger.With(zap.String("run", dir))
	res := Result{Dir: dir}

	propsPath := filepath.Join(dir, opts.PropertiesFile)
	rec, err := emitter.LoadProperties(propsPath)
	if err != nil {
		log.Error("load properties failed", zap.Error(err))
		res.Err = err
		return res
	}
	res.Record = rec

	if !rec.Has(KeyRunDir) {
		rec[KeyRunDir] = dir
	}

	clearParseErrors(rec)

	text, err := reader.ReadFile(filepath.Join(dir, opts.LogFile))
	if err == nil {
		protected := append(append([]string{}, ExternalKeys...), opts.InfoAttributes...)
		res.Kept, err = opts.Registry.ParseInto(text, rec, protected)
	}
	if err != nil {
		log.Warn("parse failed", zap.Error(err))
		res.Err = err
		AppendError(rec, parseErrorPrefix+err.Error())
	}
	if len(res.Kept) > 0 {
		log.Debug("kept existing attributes", zap.Strings("keys", res.Kept))
	}

	if opts.DryRun {
		return res
	}
	if err := emitter.WriteProperties(propsPath, rec); err != nil {
		log.Error("write properties failed", zap.Error(err))
		res.Err = errors.Join(res.Err, err)
	}
	return res
}

// AppendError adds msg to the run's unexplained_errors list.
func AppendError(rec parser.Record, msg string) {
	switch v := rec[emitter.UnexplainedErrors].(type) {
	case []any:
		rec[emitter.UnexplainedErrors] = append(v, msg)
	case []string:
		rec[emitter.UnexplainedErrors] = append(v, msg)
	default:
		rec[emitter.UnexplainedErrors] = []any{msg}
	}
}

// clearParseErrors drops the entries a previous Process call appended,
// keeping errors recorded by other tools.
func clearParseErrors(rec parser.Record) {
	var kept []any
	switch v := rec[emitter.UnexplainedErrors].(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && strings.HasPrefix(s, parseErrorPrefix) {
				continue
			}
			kept = append(kept, e)
		}
	case []string:
		for _, e := range v {
			if !strings.HasPrefix(e, parseErrorPrefix) {
				kept = append(kept, e)
			}
		}
	default:
		return
	}

	if len(kept) == 0 {
		delete(rec, emitter.UnexplainedErrors)
		return
	}
	rec[emitter.UnexplainedErrors] = kept
}
