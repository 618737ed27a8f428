package result

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/oisee/tracecheck/pkg/compare"
)

// Entry is the result of checking one trace pair of a batch.
type Entry struct {
	Name    string
	Report  Report
	Err     error // the pair could not be checked at all (missing file, bad layout)
	Elapsed time.Duration
}

// Passed reports whether the pair checked cleanly.
func (e Entry) Passed(strictLength bool) bool {
	return e.Err == nil && e.Report.Outcome.Passed(strictLength)
}

// rank orders entries worst first.
func (e Entry) rank() int {
	if e.Err != nil {
		return 0
	}
	switch o := e.Report.Outcome; {
	case o.Kind == compare.ParseFailure, o.Kind == compare.ReadFailure:
		return 1
	case o.Kind == compare.Divergence:
		return 2
	case o.LengthMismatch():
		return 3
	}
	return 4
}

// Table stores batch entries. It is safe for concurrent use.
type Table struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts an entry into the table.
func (t *Table) Add(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

// Entries returns a copy of all entries, failures first, then by name.
func (t *Table) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Entry, len(t.entries))
	copy(result, t.entries)
	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := result[i].rank(), result[j].rank()
		if ri != rj {
			return ri < rj
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// WriteSummary renders one row per entry as a table or as JSON. The
// empty format means table.
func WriteSummary(w io.Writer, entries []Entry, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return writeSummaryJSON(w, entries)
	case FormatTable, "":
	default:
		return fmt.Errorf("summary format %q not supported (want table or json)", opts.Format)
	}

	p := newPalette(opts.Color)
	table := newTable(w, []string{"Pair", "Result", "Line", "Detail", "Time"})
	for _, e := range entries {
		res, line, detail := "error", "", ""
		if e.Err != nil {
			detail = e.Err.Error()
		} else {
			o := e.Report.Outcome
			res = o.Kind.String()
			if o.Line > 0 {
				line = strconv.Itoa(o.Line)
			}
			detail = e.Report.Summary()
		}
		if e.Passed(opts.StrictLength) {
			res = p.ok.Sprint(res)
		} else {
			res = p.bad.Sprint(res)
		}
		table.Append([]string{e.Name, res, line, detail, e.Elapsed.Round(time.Millisecond).String()})
	}
	table.Render()
	return nil
}

type jsonEntry struct {
	Name    string      `json:"name"`
	Error   string      `json:"error,omitempty"`
	Report  *jsonReport `json:"report,omitempty"`
	Elapsed string      `json:"elapsed"`
}

func writeSummaryJSON(w io.Writer, entries []Entry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		je := jsonEntry{Name: e.Name, Elapsed: e.Elapsed.String()}
		if e.Err != nil {
			je.Error = e.Err.Error()
		} else {
			jr := toJSON(e.Report)
			je.Report = &jr
		}
		out = append(out, je)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}
