package layout

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oisee/tracecheck/pkg/cpu"
)

func TestBuiltinLayouts(t *testing.T) {
	ref := ReferenceLayout()
	assert.Equal(t, Reference, ref.Name)
	assert.False(t, ref.Trim)
	assert.Equal(t, Column{50, 52}, ref.Column(cpu.FieldA))
	assert.Equal(t, Column{71, 73}, ref.Column(cpu.FieldSP))
	assert.Equal(t, 73, ref.MinWidth())

	cand := CandidateLayout()
	assert.Equal(t, Candidate, cand.Name)
	assert.True(t, cand.Trim)
	assert.Equal(t, Column{25, 27}, cand.Column(cpu.FieldA))
	assert.Equal(t, Column{46, 48}, cand.Column(cpu.FieldSP))
	assert.Equal(t, 48, cand.MinWidth())

	require.NoError(t, ref.Validate())
	require.NoError(t, cand.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	l := Layout{
		Columns: [cpu.NumFields]Column{
			cpu.FieldA:  {-1, 2},
			cpu.FieldX:  {5, 5},
			cpu.FieldY:  {10, 12},
			cpu.FieldP:  {20, 12},
			cpu.FieldSP: {30, 32},
		},
	}
	err := l.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4) // name, A start, X empty, P reversed
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{Candidate, Reference}, r.Names())

	l, err := r.Lookup(Reference)
	require.NoError(t, err)
	assert.Equal(t, ReferenceLayout(), l)

	_, err = r.Lookup("mesen")
	require.ErrorIs(t, err, ErrUnknownLayout)
	assert.Contains(t, err.Error(), "candidate, reference")

	err = r.Register(ReferenceLayout())
	require.ErrorIs(t, err, ErrDuplicateLayout)

	err = r.Register(Layout{Name: "broken"})
	require.Error(t, err)
	assert.NotContains(t, r.Names(), "broken")
}

const tomlLayouts = `
[[layouts]]
name = "mesen"
trim = true
a  = { start = 10, end = 12 }
x  = { start = 15, end = 17 }
y  = { start = 20, end = 22 }
p  = { start = 25, end = 27 }
sp = { start = 31, end = 33 }

[[layouts]]
name = "candidate"
trim = true
a  = { start = 26, end = 28 }
x  = { start = 31, end = 33 }
y  = { start = 36, end = 38 }
p  = { start = 41, end = 43 }
sp = { start = 47, end = 49 }
`

const yamlLayouts = `
layouts:
  - name: mesen
    trim: true
    a: {start: 10, end: 12}
    x: {start: 15, end: 17}
    y: {start: 20, end: 22}
    p: {start: 25, end: 27}
    sp: {start: 31, end: 33}
`

func TestDecode(t *testing.T) {
	want := Layout{
		Name: "mesen",
		Trim: true,
		Columns: [cpu.NumFields]Column{
			{10, 12}, {15, 17}, {20, 22}, {25, 27}, {31, 33},
		},
	}

	layouts, err := Decode(strings.NewReader(tomlLayouts), FormatTOML)
	require.NoError(t, err)
	require.Len(t, layouts, 2)
	assert.Equal(t, want, layouts[0])

	layouts, err = Decode(strings.NewReader(yamlLayouts), FormatYAML)
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	assert.Equal(t, want, layouts[0])
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := Decode(strings.NewReader("[[layouts]]\nname = \"x\"\nacc = { start = 1, end = 2 }\n"), FormatTOML)
	assert.ErrorContains(t, err, "unknown keys")

	_, err = Decode(strings.NewReader("layouts:\n  - name: x\n    acc: {start: 1, end: 2}\n"), FormatYAML)
	assert.Error(t, err)

	// Missing columns decode as zero-width and fail validation.
	_, err = Decode(strings.NewReader("[[layouts]]\nname = \"x\"\n"), FormatTOML)
	assert.ErrorContains(t, err, "empty column")
}

func TestRegistryLoadFileOverridesBuiltin(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/layouts.toml", []byte(tomlLayouts), 0o644))

	r := Default()
	require.NoError(t, r.LoadFile(fs, "/cfg/layouts.toml"))
	assert.Equal(t, []string{Candidate, "mesen", Reference}, r.Names())

	cand, err := r.Lookup(Candidate)
	require.NoError(t, err)
	assert.Equal(t, Column{26, 28}, cand.Column(cpu.FieldA))
}

func TestLoadFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadFile(fs, "/missing.yaml")
	assert.ErrorContains(t, err, "open layout file")

	_, err = LoadFile(fs, "/layouts.json")
	assert.ErrorContains(t, err, "unsupported layout file extension")

	format, err := FormatFromPath("x.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, format)
}
