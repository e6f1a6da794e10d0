package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSV extracts of the silver tables, used by file-based runs. All loaders
// expect a header row, accept empty/NA/NaN/null value cells as missing, and
// skip rows that fail to parse.

const csvDateLayout = "2006-01-02"

// LoadInvoicesCSV reads invoices from a CSV file with columns
// pdl,fluid,start,end,value.
func LoadInvoicesCSV(filename string) ([]Invoice, error) {
	var out []Invoice
	err := readCSV(filename, []string{"pdl", "fluid", "start", "end", "value"}, func(fields map[string]string) error {
		start, err := time.Parse(csvDateLayout, fields["start"])
		if err != nil {
			return err
		}
		end, err := time.Parse(csvDateLayout, fields["end"])
		if err != nil {
			return err
		}
		value, ok := parseCell(fields["value"])
		if !ok {
			return errors.New("missing value")
		}
		out = append(out, Invoice{
			PDL:   fields["pdl"],
			Fluid: fields["fluid"],
			Start: start.UTC(),
			End:   end.UTC(),
			Value: value,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no valid invoice rows found in " + filename)
	}
	return out, nil
}

// LoadDegreeDaysCSV reads degree-day observations from a CSV file with
// columns month,reference,value.
func LoadDegreeDaysCSV(filename string) ([]DegreeDayObservation, error) {
	var out []DegreeDayObservation
	err := readCSV(filename, []string{"month", "reference", "value"}, func(fields map[string]string) error {
		value, ok := parseCell(fields["value"])
		if !ok {
			return errors.New("missing value")
		}
		out = append(out, DegreeDayObservation{
			Month:     fields["month"],
			Reference: fields["reference"],
			Value:     value,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadUsageCSV reads usage-factor observations from a CSV file with columns
// month,factor,value. A missing file is not an error: usage factors are
// optional.
func LoadUsageCSV(filename string) ([]UsageObservation, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	var out []UsageObservation
	err := readCSV(filename, []string{"month", "factor", "value"}, func(fields map[string]string) error {
		value, ok := parseCell(fields["value"])
		if !ok {
			return errors.New("missing value")
		}
		out = append(out, UsageObservation{
			Month:  fields["month"],
			Factor: fields["factor"],
			Value:  value,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readCSV streams a header-keyed CSV file, calling row for every record.
// Rows for which row returns an error are skipped rather than failing the
// whole load.
func readCSV(filename string, required []string, row func(fields map[string]string) error) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", filename, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%s: missing column %q", filename, col)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		fields := make(map[string]string, len(required))
		for _, col := range required {
			i := index[col]
			if i < len(record) {
				fields[col] = strings.TrimSpace(record[i])
			}
		}
		// Skip unparsable rows.
		_ = row(fields)
	}
	return nil
}

func parseCell(s string) (float64, bool) {
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
