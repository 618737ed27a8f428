package batch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oisee/tracecheck/pkg/compare"
	"github.com/oisee/tracecheck/pkg/cpu"
	"github.com/oisee/tracecheck/pkg/layout"
	"github.com/oisee/tracecheck/pkg/trace/tracetest"
)

// fixture writes a reference trace and three candidates: identical,
// diverging at line 7, and truncated to 10 lines.
func fixture(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	states := tracetest.Sequence(16)
	diverged := append([]cpu.State(nil), states...)
	diverged[6].P ^= cpu.FlagZ

	files := map[string]string{
		"/traces/nestest.log": tracetest.Reference(states),
		"/traces/same.txt":    tracetest.Candidate(states),
		"/traces/diverge.txt": tracetest.Candidate(diverged),
		"/traces/short.txt":   tracetest.Candidate(states[:10]),
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func newChecker(fs afero.Fs) *Checker {
	return &Checker{Fs: fs, Layouts: layout.Default()}
}

func TestCheckPair(t *testing.T) {
	c := newChecker(fixture(t))

	rep, err := c.Check(Pair{Reference: "/traces/nestest.log", Candidate: "/traces/same.txt"})
	require.NoError(t, err)
	assert.Equal(t, compare.Match, rep.Outcome.Kind)
	assert.Equal(t, 16, rep.Outcome.Compared)
	assert.Equal(t, "/traces/nestest.log", rep.Reference)

	rep, err = c.Check(Pair{Reference: "/traces/nestest.log", Candidate: "/traces/diverge.txt"})
	require.NoError(t, err)
	assert.Equal(t, compare.Divergence, rep.Outcome.Kind)
	assert.Equal(t, 7, rep.Outcome.Line)

	rep, err = c.Check(Pair{Reference: "/traces/nestest.log", Candidate: "/traces/short.txt"})
	require.NoError(t, err)
	assert.True(t, rep.Outcome.LengthMismatch())

	// Swapping layouts makes every line unreadable.
	rep, err = c.Check(Pair{
		Reference: "/traces/nestest.log", Candidate: "/traces/same.txt",
		ReferenceLayout: layout.Candidate, CandidateLayout: layout.Reference,
	})
	require.NoError(t, err)
	assert.Equal(t, compare.ParseFailure, rep.Outcome.Kind)
	assert.Equal(t, 1, rep.Outcome.Line)
}

func TestCheckPairErrors(t *testing.T) {
	c := newChecker(fixture(t))

	_, err := c.Check(Pair{Reference: "/traces/nope.log", Candidate: "/traces/same.txt"})
	assert.ErrorContains(t, err, "open trace")

	_, err = c.Check(Pair{Reference: "/traces/nestest.log", Candidate: "/traces/same.txt", CandidateLayout: "mesen"})
	assert.ErrorIs(t, err, layout.ErrUnknownLayout)

	_, err = c.Check(Pair{Reference: StdinPath, Candidate: StdinPath})
	assert.ErrorIs(t, err, ErrStdinTwice)

	_, err = c.Check(Pair{Reference: StdinPath, Candidate: "/traces/same.txt"})
	assert.ErrorContains(t, err, "stdin is not available")
}

func TestCheckPairStdin(t *testing.T) {
	c := newChecker(fixture(t))
	c.Stdin = strings.NewReader(tracetest.Candidate(tracetest.Sequence(16)))

	rep, err := c.Check(Pair{Reference: "/traces/nestest.log", Candidate: StdinPath})
	require.NoError(t, err)
	assert.Equal(t, compare.Match, rep.Outcome.Kind)
	assert.False(t, rep.Outcome.LengthMismatch())
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(3, newChecker(fixture(t)), zerolog.Nop())
	pool.Run(context.Background(), []Pair{
		{Name: "same", Reference: "/traces/nestest.log", Candidate: "/traces/same.txt"},
		{Name: "diverge", Reference: "/traces/nestest.log", Candidate: "/traces/diverge.txt"},
		{Name: "short", Reference: "/traces/nestest.log", Candidate: "/traces/short.txt"},
		{Name: "missing", Reference: "/traces/nestest.log", Candidate: "/traces/missing.txt"},
	})

	checked, failed := pool.Stats()
	assert.Equal(t, int64(4), checked)
	assert.Equal(t, int64(2), failed)

	entries := pool.Results.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "missing", entries[0].Name)
	assert.Error(t, entries[0].Err)
	assert.Equal(t, "diverge", entries[1].Name)
	assert.Equal(t, 7, entries[1].Report.Outcome.Line)
	assert.Equal(t, "short", entries[2].Name)
	assert.Equal(t, "same", entries[3].Name)
}

func TestWorkerPoolStrictLength(t *testing.T) {
	pool := NewWorkerPool(1, newChecker(fixture(t)), zerolog.Nop())
	pool.StrictLength = true
	pool.Run(context.Background(), []Pair{
		{Name: "short", Reference: "/traces/nestest.log", Candidate: "/traces/short.txt"},
	})
	_, failed := pool.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestWorkerPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(2, newChecker(fixture(t)), zerolog.Nop())
	pool.Run(ctx, []Pair{
		{Name: "a", Reference: "/traces/nestest.log", Candidate: "/traces/same.txt"},
		{Name: "b", Reference: "/traces/nestest.log", Candidate: "/traces/same.txt"},
	})
	for _, e := range pool.Results.Entries() {
		assert.ErrorIs(t, e.Err, context.Canceled)
	}
	checked, failed := pool.Stats()
	assert.Equal(t, int64(2), checked)
	assert.Equal(t, int64(2), failed)
}

const manifestTOML = `
[[pairs]]
name = "same"
reference = "nestest.log"
candidate = "same.txt"

[[pairs]]
name = "mesen"
reference = "/abs/nestest.log"
candidate = "mesen.txt"
candidate_layout = "mesen"
`

const manifestYAML = `
pairs:
  - name: same
    reference: nestest.log
    candidate: same.txt
  - reference: nestest.log
    candidate: short.txt
`

func TestLoadManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/traces/batch.toml", []byte(manifestTOML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/traces/batch.yaml", []byte(manifestYAML), 0o644))

	m, err := LoadManifest(fs, "/traces/batch.toml")
	require.NoError(t, err)
	require.Len(t, m.Pairs, 2)
	assert.Equal(t, Pair{
		Name:            "same",
		Reference:       filepath.Join("/traces", "nestest.log"),
		Candidate:       filepath.Join("/traces", "same.txt"),
		ReferenceLayout: layout.Reference,
		CandidateLayout: layout.Candidate,
	}, m.Pairs[0])
	assert.Equal(t, "/abs/nestest.log", m.Pairs[1].Reference)
	assert.Equal(t, "mesen", m.Pairs[1].CandidateLayout)

	err = m.Validate(layout.Default())
	require.ErrorIs(t, err, layout.ErrUnknownLayout)

	m, err = LoadManifest(fs, "/traces/batch.yaml")
	require.NoError(t, err)
	require.Len(t, m.Pairs, 2)
	assert.Equal(t, "short.txt", m.Pairs[1].Name) // defaults to the candidate path
	require.NoError(t, m.Validate(layout.Default()))
}

func TestManifestValidate(t *testing.T) {
	m := &Manifest{Pairs: []Pair{
		{Name: "x", Reference: "a"},
		{Name: "x", Reference: "a", Candidate: StdinPath},
	}}
	for i := range m.Pairs {
		m.Pairs[i] = m.Pairs[i].withDefaults()
	}
	err := m.Validate(layout.Default())
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "missing candidate")
	assert.Contains(t, msg, "duplicate name")
	assert.Contains(t, msg, "stdin is not allowed")

	assert.ErrorContains(t, (&Manifest{}).Validate(layout.Default()), "no pairs")
}

func TestDecodeManifestRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("[[pairs]]\nrefrence = \"a\"\n"), layout.FormatTOML)
	assert.ErrorContains(t, err, "unknown keys")
}
