package result

import (
	"encoding/json"
	"io"

	"github.com/oisee/tracecheck/pkg/compare"
)

// jsonReport is the machine readable form of a Report.
type jsonReport struct {
	Result          string   `json:"result"`
	Reference       string   `json:"reference"`
	Candidate       string   `json:"candidate"`
	Compared        int      `json:"compared"`
	Line            int      `json:"line,omitempty"`
	ReferenceState  string   `json:"referenceState,omitempty"`
	CandidateState  string   `json:"candidateState,omitempty"`
	Fields          []string `json:"fields,omitempty"`
	ReferenceLength int      `json:"referenceLength,omitempty"`
	CandidateLength int      `json:"candidateLength,omitempty"`
	LengthMismatch  bool     `json:"lengthMismatch,omitempty"`
	Source          string   `json:"source,omitempty"`
	Error           string   `json:"error,omitempty"`
	Raw             string   `json:"raw,omitempty"`
}

func toJSON(r Report) jsonReport {
	o := r.Outcome
	jr := jsonReport{
		Result:    o.Kind.String(),
		Reference: r.Reference,
		Candidate: r.Candidate,
		Compared:  o.Compared,
		Line:      o.Line,
	}
	switch o.Kind {
	case compare.Match:
		jr.ReferenceLength = o.RefLen
		jr.CandidateLength = o.CandLen
		jr.LengthMismatch = o.LengthMismatch()
	case compare.Divergence:
		jr.ReferenceState = o.Reference.String()
		jr.CandidateState = o.Candidate.String()
		for _, f := range o.Diff().Fields() {
			jr.Fields = append(jr.Fields, f.Name())
		}
	default:
		jr.Source = r.Source(o.Side)
		if o.Err != nil {
			jr.Error = o.Err.Error()
		}
		if pe := o.ParseError(); pe != nil {
			jr.Raw = pe.Raw
		}
	}
	return jr
}

func writeJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(r))
}
