package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

// jsonRecord is the wire shape of one measurement in a JSON input file.
type jsonRecord struct {
	Timestamp string  `json:"timestamp"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
}

// ReadJSON reads measurements from a JSON stream holding an array of
// objects: [{"timestamp": "2017-01-03T10:04:45", "type": "TEMP", "value": 35.79}, ...].
func ReadJSON(stream io.Reader) ([]measurement.Measurement, *Result, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read json input")
	}

	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, errors.Wrap(err, "parse json input")
	}

	result := &Result{}
	var out []measurement.Measurement

	for i, rec := range records {
		result.Total++
		m, err := parseJSONRecord(rec)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		out = append(out, m)
		result.Loaded++
	}

	return out, result, nil
}

func parseJSONRecord(rec jsonRecord) (measurement.Measurement, error) {
	ts, err := parseTime(rec.Timestamp)
	if err != nil {
		return measurement.Measurement{}, err
	}

	typ, err := measurement.ParseType(rec.Type)
	if err != nil {
		return measurement.Measurement{}, err
	}

	return measurement.New(ts, typ, rec.Value)
}
