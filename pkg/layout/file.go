package layout

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/oisee/tracecheck/pkg/cpu"
)

// Format selects the encoding of a layout file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported layout file extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
}

// fileLayout is the on-disk form of a Layout. Fields are named rather
// than indexed so files stay readable.
//
//	[[layouts]]
//	name = "mesen"
//	trim = true
//	a  = { start = 25, end = 27 }
//	...
type fileLayout struct {
	Name string `toml:"name" yaml:"name"`
	Trim bool   `toml:"trim" yaml:"trim"`
	A    Column `toml:"a" yaml:"a"`
	X    Column `toml:"x" yaml:"x"`
	Y    Column `toml:"y" yaml:"y"`
	P    Column `toml:"p" yaml:"p"`
	SP   Column `toml:"sp" yaml:"sp"`
}

type fileContents struct {
	Layouts []fileLayout `toml:"layouts" yaml:"layouts"`
}

func (fl fileLayout) layout() Layout {
	l := Layout{Name: fl.Name, Trim: fl.Trim}
	l.Columns = [cpu.NumFields]Column{fl.A, fl.X, fl.Y, fl.P, fl.SP}
	return l
}

// Decode reads layouts from r. Unknown keys are rejected so a typo in a
// field name does not silently leave a column at zero.
func Decode(r io.Reader, format Format) ([]Layout, error) {
	var contents fileContents
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&contents)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown keys %v", undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&contents); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown layout format %q", format)
	}

	out := make([]Layout, 0, len(contents.Layouts))
	for _, fl := range contents.Layouts {
		l := fl.layout()
		if err := l.Validate(); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// LoadFile reads layouts from a TOML or YAML file on fs.
func LoadFile(fs afero.Fs, path string) ([]Layout, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout file: %w", err)
	}
	defer f.Close()

	layouts, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layouts, nil
}

// LoadFile adds every layout in path to r. A file layout named like an
// existing one replaces it, which is how the built-in offsets are
// overridden when an emitter changes its spacing.
func (r *Registry) LoadFile(fs afero.Fs, path string) error {
	layouts, err := LoadFile(fs, path)
	if err != nil {
		return err
	}
	for _, l := range layouts {
		if err := r.Replace(l); err != nil {
			return err
		}
	}
	return nil
}
