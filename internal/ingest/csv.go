package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

// ReadCSV reads measurements from a CSV stream. The first row is a header
// and must contain the columns timestamp, type, and value (any order,
// case-insensitive). Extra columns are ignored.
func ReadCSV(stream io.Reader) ([]measurement.Measurement, *Result, error) {
	reader := csv.NewReader(stream)
	// Tolerate rows missing trailing optional fields.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &Result{}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, result, nil
		}
		return nil, nil, errors.Wrap(err, "read csv header")
	}

	headerMap := make(map[string]int)
	for i, h := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for _, required := range []string{"timestamp", "type", "value"} {
		if _, ok := headerMap[required]; !ok {
			return nil, nil, fmt.Errorf("missing required csv header: %s", required)
		}
	}

	var out []measurement.Measurement
	line := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Total++
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		result.Total++
		m, err := parseCSVRecord(record, headerMap)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		out = append(out, m)
		result.Loaded++
	}

	return out, result, nil
}

func parseCSVRecord(record []string, headerMap map[string]int) (measurement.Measurement, error) {
	get := func(col string) string {
		if idx, ok := headerMap[col]; ok && idx < len(record) {
			return record[idx]
		}
		return ""
	}

	ts, err := parseTime(get("timestamp"))
	if err != nil {
		return measurement.Measurement{}, err
	}

	typ, err := measurement.ParseType(get("type"))
	if err != nil {
		return measurement.Measurement{}, err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(get("value")), 64)
	if err != nil {
		return measurement.Measurement{}, fmt.Errorf("invalid value format: %s", get("value"))
	}

	return measurement.New(ts, typ, value)
}
