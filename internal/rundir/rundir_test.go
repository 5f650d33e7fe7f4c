package rundir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/juliosaraiva/planlog/internal/emitter"
	"github.com/juliosaraiva/planlog/internal/parser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func readFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/gbfs_lazy.log")
	require.NoError(t, err)
	return string(data)
}

// makeRun creates dir/<name> with a run.log and optional properties.
func makeRun(t *testing.T, root, name, log string, props parser.Record) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.log"), []byte(log), 0o644))
	if props != nil {
		require.NoError(t, emitter.WriteProperties(filepath.Join(dir, "properties"), props))
	}
	return dir
}

func defaultOptions() Options {
	return Options{LogFile: "run.log", PropertiesFile: "properties", Workers: 4}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	makeRun(t, root, "runs-00001-00100/00002", "x", nil)
	makeRun(t, root, "runs-00001-00100/00001", "x", nil)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	dirs, err := Discover(root, "run.log")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "runs-00001-00100/00001"),
		filepath.Join(root, "runs-00001-00100/00002"),
	}, dirs)

	_, err = Discover(filepath.Join(root, "missing"), "run.log")
	assert.Error(t, err)
}

func TestProcess_WritesProperties(t *testing.T) {
	root := t.TempDir()
	dir := makeRun(t, root, "00001", readFixture(t), parser.Record{
		"domain":       "gripper",
		"problem":      "prob01.pddl",
		"algorithm":    "gbfs-lazy-ff-1",
		"time_limit":   int64(1800),
		"memory_limit": int64(8000),
	})

	results, err := Process(context.Background(), []string{dir}, defaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	rec, err := emitter.LoadProperties(filepath.Join(dir, "properties"))
	require.NoError(t, err)

	assert.Equal(t, "gripper", rec["domain"])
	assert.Equal(t, int64(1800), rec["time_limit"])
	assert.Equal(t, dir, rec[KeyRunDir])
	assert.Equal(t, int64(3), rec["cost"])
	assert.Equal(t, int64(1), rec["coverage"])
	assert.Equal(t, 513.306624, rec["memory"])
	assert.Equal(t, 0.0, rec["search_time"])
	assert.Equal(t, 1.43, rec["ff_rule_total_skew"])
	assert.Equal(t, int64(7), rec["succgen_prog_num_exec"])
}

func TestProcess_FailureIsolated(t *testing.T) {
	root := t.TempDir()
	good := makeRun(t, root, "00001", "[GBFS] Plan cost: 2\n[GBFS] Plan length: 2\n", nil)
	bad := makeRun(t, root, "00002", "[GBFS] Plan length: 2\n[Search] Search time: 1 ms (1000000 ns)\n[Search] Number of expanded states: 0\n", nil)
	unknown := makeRun(t, root, "00003", "segmentation fault\n", nil)

	results, err := Process(context.Background(), []string{good, bad, unknown}, defaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, parser.ErrDivisionHazard)
	assert.ErrorIs(t, results[2].Err, parser.ErrNoMatch)
	assert.Equal(t, Summary{Runs: 3, Failed: 2}, Summarize(results))

	rec, err := emitter.LoadProperties(filepath.Join(bad, "properties"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec["length"], "partial results are kept")
	errs, ok := rec[emitter.UnexplainedErrors].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "add_search_time_us_per_expanded")

	rec, err = emitter.LoadProperties(filepath.Join(good, "properties"))
	require.NoError(t, err)
	assert.NotContains(t, rec, emitter.UnexplainedErrors)
	assert.Equal(t, int64(2), rec["cost"])
}

func TestProcess_InfoAttributesKept(t *testing.T) {
	root := t.TempDir()
	dir := makeRun(t, root, "00001", "[GBFS] Plan cost: 2\n[GBFS] Plan length: 2\n", parser.Record{
		"domain": "gripper",
		"cost":   int64(5),
		"length": int64(7),
	})

	core, logs := observer.New(zap.DebugLevel)
	opts := defaultOptions()
	opts.Logger = zap.New(core)
	opts.InfoAttributes = []string{"cost"}

	results, err := Process(context.Background(), []string{dir}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"cost"}, results[0].Kept)
	assert.Equal(t, int64(5), results[0].Record["cost"])
	assert.Equal(t, int64(2), results[0].Record["length"], "non-info attributes are replaced")
	assert.Equal(t, "gripper", results[0].Record["domain"])
	assert.Equal(t, 1, logs.FilterMessage("kept existing attributes").Len())
}

func TestProcess_ReparseIsStable(t *testing.T) {
	root := t.TempDir()
	logs := map[string]string{
		"ok":     readFixture(t),
		"broken": "[GBFS] Plan length: 2\n[Search] Search time: 1 ms (1000000 ns)\n",
	}

	for name, log := range logs {
		t.Run(name, func(t *testing.T) {
			dir := makeRun(t, root, name, log, parser.Record{"domain": "gripper", "algorithm": "lazy"})
			props := filepath.Join(dir, "properties")

			_, err := Process(context.Background(), []string{dir}, defaultOptions())
			require.NoError(t, err)
			first, err := os.ReadFile(props)
			require.NoError(t, err)

			_, err = Process(context.Background(), []string{dir}, defaultOptions())
			require.NoError(t, err)
			second, err := os.ReadFile(props)
			require.NoError(t, err)

			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestProcess_ReparseReplacesStaleValues(t *testing.T) {
	root := t.TempDir()
	dir := makeRun(t, root, "00001", "[GBFS] Plan length: 2\n[Search] Search time: 1 ms (1000000 ns)\n",
		parser.Record{"domain": "gripper", emitter.UnexplainedErrors: []any{"output-to-slurm.err: killed"}})

	for i := 0; i < 2; i++ {
		results, err := Process(context.Background(), []string{dir}, defaultOptions())
		require.NoError(t, err)
		require.ErrorIs(t, results[0].Err, parser.ErrDivisionHazard)
	}
	rec, err := emitter.LoadProperties(filepath.Join(dir, "properties"))
	require.NoError(t, err)
	require.Len(t, rec[emitter.UnexplainedErrors], 2)

	fixed := "[GBFS] Plan length: 9\n[Search] Search time: 1 ms (1000000 ns)\n[Search] Number of expanded states: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.log"), []byte(fixed), 0o644))

	results, err := Process(context.Background(), []string{dir}, defaultOptions())
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	rec, err = emitter.LoadProperties(filepath.Join(dir, "properties"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), rec["length"])
	assert.Equal(t, 100.0, rec["search_time_us_per_expanded"])
	assert.Equal(t, []any{"output-to-slurm.err: killed"}, rec[emitter.UnexplainedErrors],
		"errors from other tools survive, parse errors are replaced")
}

func TestClearParseErrors(t *testing.T) {
	rec := parser.Record{emitter.UnexplainedErrors: []string{parseErrorPrefix + "old"}}
	clearParseErrors(rec)
	assert.NotContains(t, rec, emitter.UnexplainedErrors)

	rec = parser.Record{emitter.UnexplainedErrors: []any{"external", parseErrorPrefix + "old"}}
	clearParseErrors(rec)
	assert.Equal(t, []any{"external"}, rec[emitter.UnexplainedErrors])
}

func TestProcess_DryRun(t *testing.T) {
	root := t.TempDir()
	dir := makeRun(t, root, "00001", "[GBFS] Plan cost: 2\n", nil)

	opts := defaultOptions()
	opts.DryRun = true
	results, err := Process(context.Background(), []string{dir}, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), results[0].Record["cost"])

	_, err = os.Stat(filepath.Join(dir, "properties"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcess_MissingLog(t *testing.T) {
	dir := t.TempDir()

	results, err := Process(context.Background(), []string{dir}, defaultOptions())
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, os.ErrNotExist)
}

func TestProcess_Cancelled(t *testing.T) {
	root := t.TempDir()
	var dirs []string
	for _, name := range []string{"a", "b", "c"} {
		dirs = append(dirs, makeRun(t, root, name, "[GBFS] Plan cost: 1\n", nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Process(ctx, dirs, defaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, dirs[i], r.Dir)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, Summary{Runs: 3, Failed: 3}, Summarize(results))
}

func TestAppendError(t *testing.T) {
	rec := parser.Record{}
	AppendError(rec, "first")
	AppendError(rec, "second")
	assert.Equal(t, []any{"first", "second"}, rec[emitter.UnexplainedErrors])

	rec = parser.Record{emitter.UnexplainedErrors: []string{"a"}}
	AppendError(rec, "b")
	assert.Equal(t, []string{"a", "b"}, rec[emitter.UnexplainedErrors])
}
