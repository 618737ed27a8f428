package batch

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/oisee/tracecheck/pkg/layout"
)

// Manifest lists the pairs of a batch run.
//
//	[[pairs]]
//	name = "nestest"
//	reference = "nestest.log"
//	candidate = "logs.txt.zst"
type Manifest struct {
	Pairs []Pair `toml:"pairs" yaml:"pairs"`
}

// DecodeManifest reads a manifest in the given format.
func DecodeManifest(r io.Reader, format layout.Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case layout.FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&m)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown keys %v", undecoded)
		}
	case layout.FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
	for i := range m.Pairs {
		m.Pairs[i] = m.Pairs[i].withDefaults()
	}
	return &m, nil
}

// LoadManifest reads a manifest from fs. Relative trace paths are taken
// relative to the manifest's directory.
func LoadManifest(fs afero.Fs, path string) (*Manifest, error) {
	format, err := layout.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := DecodeManifest(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Pairs {
		m.Pairs[i].Reference = resolve(dir, m.Pairs[i].Reference)
		m.Pairs[i].Candidate = resolve(dir, m.Pairs[i].Candidate)
	}
	return m, nil
}

func resolve(dir, p string) string {
	if p == "" || p == StdinPath || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks every pair against the known layouts and reports all
// problems at once.
func (m *Manifest) Validate(layouts *layout.Registry) error {
	var result *multierror.Error
	if len(m.Pairs) == 0 {
		result = multierror.Append(result, fmt.Errorf("manifest has no pairs"))
	}
	seen := make(map[string]bool)
	for i, p := range m.Pairs {
		where := fmt.Sprintf("pair %d (%s)", i+1, p.Name)
		if p.Reference == "" {
			result = multierror.Append(result, fmt.Errorf("%s: missing reference", where))
		}
		if p.Candidate == "" {
			result = multierror.Append(result, fmt.Errorf("%s: missing candidate", where))
		}
		if p.Reference == StdinPath || p.Candidate == StdinPath {
			result = multierror.Append(result, fmt.Errorf("%s: stdin is not allowed in a manifest", where))
		}
		if seen[p.Name] {
			result = multierror.Append(result, fmt.Errorf("%s: duplicate name", where))
		}
		seen[p.Name] = true
		for _, tag := range []string{p.ReferenceLayout, p.CandidateLayout} {
			if _, err := layouts.Lookup(tag); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", where, err))
			}
		}
	}
	return result.ErrorOrNil()
}
