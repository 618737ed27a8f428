// Package batch runs trace comparisons for one pair or many.
package batch

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/oisee/tracecheck/pkg/compare"
	"github.com/oisee/tracecheck/pkg/layout"
	"github.com/oisee/tracecheck/pkg/result"
	"github.com/oisee/tracecheck/pkg/trace"
)

// StdinPath names standard input in place of a trace file.
const StdinPath = "-"

// Pair is one reference/candidate trace pair to check.
type Pair struct {
	Name            string `toml:"name" yaml:"name"`
	Reference       string `toml:"reference" yaml:"reference"`
	Candidate       string `toml:"candidate" yaml:"candidate"`
	ReferenceLayout string `toml:"reference_layout" yaml:"reference_layout"`
	CandidateLayout string `toml:"candidate_layout" yaml:"candidate_layout"`
}

func (p Pair) withDefaults() Pair {
	if p.ReferenceLayout == "" {
		p.ReferenceLayout = layout.Reference
	}
	if p.CandidateLayout == "" {
		p.CandidateLayout = layout.Candidate
	}
	if p.Name == "" {
		p.Name = p.Candidate
	}
	return p
}

var ErrStdinTwice = errors.New("only one trace can be read from stdin")

// Checker opens the two traces of a pair and compares them.
type Checker struct {
	Fs      afero.Fs
	Layouts *layout.Registry
	Stdin   io.Reader
}

// Check compares one pair. The error return covers problems that stop
// the comparison from starting at all; anything found while reading the
// traces is part of the report's Outcome.
func (c *Checker) Check(p Pair) (result.Report, error) {
	p = p.withDefaults()
	rep := result.Report{Reference: p.Reference, Candidate: p.Candidate}

	if p.Reference == StdinPath && p.Candidate == StdinPath {
		return rep, ErrStdinTwice
	}
	refLayout, err := c.Layouts.Lookup(p.ReferenceLayout)
	if err != nil {
		return rep, fmt.Errorf("reference: %w", err)
	}
	candLayout, err := c.Layouts.Lookup(p.CandidateLayout)
	if err != nil {
		return rep, fmt.Errorf("candidate: %w", err)
	}

	refFile, err := c.open(p.Reference)
	if err != nil {
		return rep, err
	}
	defer refFile.Close()
	candFile, err := c.open(p.Candidate)
	if err != nil {
		return rep, err
	}
	defer candFile.Close()

	rep.Outcome = compare.Compare(
		trace.NewReader(refFile, p.Reference, refLayout),
		trace.NewReader(candFile, p.Candidate, candLayout),
	)
	return rep, nil
}

func (c *Checker) open(path string) (io.ReadCloser, error) {
	if path == StdinPath {
		if c.Stdin == nil {
			return nil, errors.New("stdin is not available")
		}
		return trace.Decompress(c.Stdin)
	}
	return trace.OpenFile(c.Fs, path)
}
