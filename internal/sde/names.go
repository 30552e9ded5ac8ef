// Package sde loads reference item type names from a static data export
// CSV. The names feed the roster dictionary that gates drone and charge
// classification.
package sde

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadTypeNames reads the typeName column from an invTypes-style CSV. The
// column is located by header name, so column order and extra columns do
// not matter. A missing path returns an empty slice, not an error: the
// dictionary is an enhancement, not a requirement.
func LoadTypeNames(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return readTypeNames(f)
}

func readTypeNames(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "typeName") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("sde: no typeName column in header %v", header)
	}

	var names []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				// Malformed rows are skipped; the export has a few.
				continue
			}
			return names, err
		}
		if col >= len(rec) {
			continue
		}
		name := strings.TrimSpace(rec[col])
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
