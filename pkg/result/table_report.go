package result

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/oisee/tracecheck/pkg/compare"
	"github.com/oisee/tracecheck/pkg/cpu"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// writeTable renders the outcome headline followed by a per-field table
// for divergences, or the entry counts otherwise.
func writeTable(w io.Writer, r Report, p palette) error {
	o := r.Outcome

	headline := r.Summary()
	if o.Kind == compare.Match {
		headline = p.ok.Sprint(headline)
	} else {
		headline = p.bad.Sprint(headline)
	}
	if _, err := fmt.Fprintln(w, headline); err != nil {
		return err
	}

	switch o.Kind {
	case compare.Divergence:
		diff := o.Diff()
		table := newTable(w, []string{"Field", r.Reference, r.Candidate, ""})
		for _, f := range cpu.Fields {
			ref := fmt.Sprintf("%02X", o.Reference.Get(f))
			cand := fmt.Sprintf("%02X", o.Candidate.Get(f))
			mark := ""
			if diff.Has(f) {
				ref, cand, mark = p.mark.Sprint(ref), p.mark.Sprint(cand), "*"
			}
			table.Append([]string{f.Name(), ref, cand, mark})
		}
		if diff.Has(cpu.FieldP) {
			table.Append([]string{"flags", cpu.FlagString(o.Reference.P), cpu.FlagString(o.Candidate.P),
				strings.ReplaceAll(cpu.FlagString(cpu.FlagDiff(o.Reference.P, o.Candidate.P)), ".", "")})
		}
		table.Render()

	case compare.Match:
		table := newTable(w, []string{"Trace", "Entries"})
		table.Append([]string{r.Reference, strconv.Itoa(o.RefLen)})
		table.Append([]string{r.Candidate, strconv.Itoa(o.CandLen)})
		table.Render()

	default:
		table := newTable(w, []string{"Source", "Line", "Error"})
		table.Append([]string{r.Source(o.Side), strconv.Itoa(o.Line), fmt.Sprint(o.Err)})
		table.Render()
	}
	return nil
}
