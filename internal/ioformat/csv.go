// Package ioformat implements the §6 file-format boundary: CSV readers
// for zones, networks, agents, parameters, and observed trips, and CSV
// writers for simulation output and choicesets. No CSV library appears
// anywhere in the retrieved corpus, so this package reads/writes with
// encoding/csv directly -- the one boundary-layer concern in this
// module built on the standard library rather than a third-party
// dependency, since none of the example repos pull one in.
package ioformat

import (
	"encoding/csv"
	"io"

	"github.com/scaper-sim/scaper/internal/scaperr"
)

// headerIndex maps a CSV header row's column names to their position,
// so every loader below addresses columns by name rather than
// position -- tolerant of reordered or additional columns.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

// column fetches row[idx[name]], failing with InputFormat if name is
// not a column in this file.
func column(row []string, idx map[string]int, name string) (string, error) {
	i, ok := idx[name]
	if !ok {
		return "", scaperr.New(scaperr.InputFormat, "missing required column %q", name)
	}
	if i >= len(row) {
		return "", scaperr.New(scaperr.InputFormat, "row too short for column %q", name)
	}
	return row[i], nil
}

// readAll reads every CSV record from r, returning the header
// separately from the data rows.
func readAll(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, scaperr.Wrap(scaperr.InputFormat, err, "reading csv")
	}
	if len(records) == 0 {
		return nil, nil, scaperr.New(scaperr.InputFormat, "empty csv file")
	}
	return records[0], records[1:], nil
}

func newWriter(w io.Writer) *csv.Writer {
	return csv.NewWriter(w)
}
