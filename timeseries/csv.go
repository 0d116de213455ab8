package timeseries

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

// ErrNoData is returned when a CSV source holds no parseable observation.
var ErrNoData = errors.New("timeseries: no valid data found in CSV")

// missing lists the cell values treated as missing observations.
var missing = map[string]bool{"": true, "NA": true, "NaN": true, "null": true}

// dateFormats are tried in order after CSVOptions.DateFormat.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	ValueColumn string // Column name for values (default: "y")
	DateColumn  string // Column name for dates (optional)
	DateFormat  string // Date format (default: "2006-01-02")
	HasHeader   bool   // Whether CSV has header row (default: true)
	Delimiter   rune   // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		HasHeader:   true,
		Delimiter:   ',',
	}
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	series, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return series, nil
}

// LoadCSVFromReader loads a time series from an io.Reader. Missing or
// unparseable values are skipped. Without a header the last column holds
// the values and the first column, if any other, the dates.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	valueIdx, dateIdx := -1, -1
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, err
		}
		for i, h := range header {
			switch strings.TrimSpace(h) {
			case opts.ValueColumn:
				valueIdx = i
			case opts.DateColumn, "ds", "date":
				if dateIdx == -1 {
					dateIdx = i
				}
			}
		}
		if valueIdx == -1 {
			valueIdx = len(header) - 1
		}
		if dateIdx == valueIdx {
			dateIdx = -1
		}
	}

	var values []float64
	var timestamps []time.Time
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}

		vi, di := valueIdx, dateIdx
		if !opts.HasHeader {
			vi = len(record) - 1
			if vi > 0 {
				di = 0
			}
		}
		if vi < 0 || vi >= len(record) {
			continue
		}

		cell := strings.TrimSpace(record[vi])
		if missing[cell] {
			continue
		}
		val, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		values = append(values, val)

		if di >= 0 && di < len(record) {
			if ts, ok := parseDate(strings.TrimSpace(record[di]), opts.DateFormat); ok {
				timestamps = append(timestamps, ts)
			}
		}
	}

	if len(values) == 0 {
		return nil, ErrNoData
	}
	if len(timestamps) == len(values) {
		return &Series{Timestamps: timestamps, Values: values, Name: opts.ValueColumn}, nil
	}
	series := New(values)
	series.Name = opts.ValueColumn
	return series, nil
}

func parseDate(s, preferred string) (time.Time, bool) {
	if preferred != "" {
		if ts, err := time.Parse(preferred, s); err == nil {
			return ts, true
		}
	}
	for _, f := range dateFormats {
		if ts, err := time.Parse(f, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// WriteCSV writes the series as "ds,y" rows with RFC 3339 timestamps, or as
// "index,y" rows when the series carries no timestamps.
func WriteCSV(w io.Writer, series *Series) error {
	writer := csv.NewWriter(w)
	dated := len(series.Timestamps) == len(series.Values)

	header := []string{"index", "y"}
	if dated {
		header[0] = "ds"
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, v := range series.Values {
		key := strconv.Itoa(i + 1)
		if dated {
			key = series.Timestamps[i].Format(time.RFC3339)
		}
		if err := writer.Write([]string{key, strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the series to a file with WriteCSV.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, series); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
