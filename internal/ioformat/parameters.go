package ioformat

import (
	"io"

	"github.com/scaper-sim/scaper/internal/config"
)

// LoadParameters reads a parameters CSV with columns "parameter",
// "value", "estimate" (§6). The "nClasses" row, if present, is returned
// in the slice like any other row, since config.NewParameterSet reads it
// directly off the Parameter slice; callers normally just pass the slice
// straight through.
func LoadParameters(r io.Reader) ([]config.Parameter, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	idx := headerIndex(header)

	params := make([]config.Parameter, len(rows))
	for i, row := range rows {
		name, err := column(row, idx, "parameter")
		if err != nil {
			return nil, err
		}
		value, err := readFloatColumn(row, idx, "value")
		if err != nil {
			return nil, err
		}
		estimateStr, err := column(row, idx, "estimate")
		if err != nil {
			return nil, err
		}
		params[i] = config.Parameter{Name: name, Value: value, Estimate: config.ParseBool(estimateStr)}
	}
	return params, nil
}

// WriteParameters writes a parameter table back out in the same
// (parameter, value, estimate) layout LoadParameters reads, used by
// `est` to persist fitted coefficients.
func WriteParameters(w io.Writer, params []config.Parameter) error {
	writer := newWriter(w)
	if err := writer.Write([]string{"parameter", "value", "estimate"}); err != nil {
		return err
	}
	for _, p := range params {
		estimate := "0"
		if p.Estimate {
			estimate = "1"
		}
		if err := writer.Write([]string{p.Name, formatFloat(p.Value), estimate}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
