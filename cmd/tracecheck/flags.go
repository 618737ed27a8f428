package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/oisee/tracecheck/pkg/result"
)

// formatValue is a --format flag restricted to a subset of the report
// formats, so a bad value fails during flag parsing.
type formatValue struct {
	p       *result.Format
	allowed []result.Format
}

var _ pflag.Value = (*formatValue)(nil)

func (v *formatValue) String() string { return string(*v.p) }

func (v *formatValue) Set(s string) error {
	f, err := result.ParseFormat(s)
	if err != nil || !slices.Contains(v.allowed, f) {
		return fmt.Errorf("unsupported format %q (want %s)", s, v.Type())
	}
	*v.p = f
	return nil
}

func (v *formatValue) Type() string {
	names := make([]string, len(v.allowed))
	for i, f := range v.allowed {
		names[i] = string(f)
	}
	return strings.Join(names, "|")
}

// formatFlag registers -f/--format on flags, defaulting to def.
func formatFlag(flags *pflag.FlagSet, p *result.Format, def result.Format, usage string, allowed ...result.Format) {
	*p = def
	flags.VarP(&formatValue{p: p, allowed: allowed}, "format", "f", usage)
}
