package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

func TestReadCSV(t *testing.T) {
	input := `timestamp,type,value
2017-01-03T10:04:45,TEMP,35.79
2017-01-03T10:01:18,SPO2,98.78
2017-01-03 10:02:01,temp,35.82
`
	ms, res, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if res.Total != 3 || res.Loaded != 3 || res.Failed != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(ms) != 3 {
		t.Fatalf("expected 3 measurements, got %d", len(ms))
	}

	want := time.Date(2017, 1, 3, 10, 4, 45, 0, time.UTC)
	if !ms[0].Time.Equal(want) {
		t.Errorf("time = %v, want %v", ms[0].Time, want)
	}
	if ms[0].Type != measurement.TypeTemperature || ms[0].Value != 35.79 {
		t.Errorf("unexpected measurement: %v", ms[0])
	}
	// Mixed-case type names and SQL-style timestamps both parse.
	if ms[2].Type != measurement.TypeTemperature {
		t.Errorf("expected TEMP, got %v", ms[2].Type)
	}
}

func TestReadCSV_ColumnOrderAndExtras(t *testing.T) {
	input := `value,device,type,timestamp
98.78,wrist-01,SPO2,2017-01-03T10:01:18
`
	ms, res, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if res.Loaded != 1 || len(ms) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if ms[0].Type != measurement.TypeSpO2 || ms[0].Value != 98.78 {
		t.Errorf("unexpected measurement: %v", ms[0])
	}
}

func TestReadCSV_SkipsMalformedRecords(t *testing.T) {
	input := `timestamp,type,value
2017-01-03T10:04:45,TEMP,35.79
not-a-time,TEMP,36.0
2017-01-03T10:05:00,XRAY,1.0
2017-01-03T10:06:00,TEMP,not-a-number
`
	ms, res, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if res.Total != 4 || res.Loaded != 1 || res.Failed != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.Errors) != 3 {
		t.Errorf("expected 3 error messages, got %v", res.Errors)
	}
	if len(ms) != 1 {
		t.Fatalf("expected 1 measurement, got %d", len(ms))
	}
}

func TestReadCSV_MissingHeader(t *testing.T) {
	input := `timestamp,value
2017-01-03T10:04:45,35.79
`
	_, _, err := ReadCSV(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "type") {
		t.Errorf("expected missing header error for 'type', got %v", err)
	}
}

func TestReadCSV_EmptyStream(t *testing.T) {
	ms, res, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(ms) != 0 || res.Total != 0 {
		t.Errorf("expected empty result, got %d measurements, %+v", len(ms), res)
	}
}

func TestReadJSON(t *testing.T) {
	input := `[
		{"timestamp": "2017-01-03T10:04:45", "type": "TEMP", "value": 35.79},
		{"timestamp": "2017-01-03T10:01:18", "type": "SPO2", "value": 98.78},
		{"timestamp": "garbage", "type": "TEMP", "value": 1.0},
		{"timestamp": "2017-01-03T10:02:00", "type": "ECG", "value": 1.0}
	]`

	ms, res, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if res.Total != 4 || res.Loaded != 2 || res.Failed != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(ms) != 2 {
		t.Fatalf("expected 2 measurements, got %d", len(ms))
	}
	if ms[1].Type != measurement.TypeSpO2 {
		t.Errorf("expected SPO2, got %v", ms[1].Type)
	}
}

func TestReadJSON_NotAnArray(t *testing.T) {
	if _, _, err := ReadJSON(strings.NewReader(`{"timestamp": "x"}`)); err == nil {
		t.Error("expected error for non-array input")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"json", FormatJSON, false},
		{"xml", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, errors.ErrUnsupportedFormat) {
				t.Errorf("ParseFormat(%q): expected ErrUnsupportedFormat, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestLoadFile_FormatFromExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(csvPath, []byte("timestamp,type,value\n2017-01-03T10:00:00,HR,71\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ms, res, err := LoadFile(csvPath, FormatAuto)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if res.Loaded != 1 || ms[0].Type != measurement.TypeHeartRate {
		t.Errorf("unexpected result: %+v %v", res, ms)
	}

	if _, _, err := LoadFile(filepath.Join(dir, "a.txt"), FormatAuto); !errors.Is(err, errors.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for .txt, got %v", err)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()

	files := []struct {
		name, content string
	}{
		{"one.csv", "timestamp,type,value\n2017-01-03T10:00:00,TEMP,36.0\nbad,TEMP,1\n"},
		{"two.json", `[{"timestamp": "2017-01-03T10:01:00", "type": "SPO2", "value": 98.0}]`},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			t.Fatalf("write %s: %v", f.name, err)
		}
		paths = append(paths, path)
	}

	ms, res, err := LoadFiles(context.Background(), paths, FormatAuto)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}

	if res.Total != 3 || res.Loaded != 2 || res.Failed != 1 {
		t.Errorf("unexpected merged result: %+v", res)
	}
	if len(ms) != 2 {
		t.Fatalf("expected 2 measurements, got %d", len(ms))
	}
	// File order is preserved in the merged series.
	if ms[0].Type != measurement.TypeTemperature || ms[1].Type != measurement.TypeSpO2 {
		t.Errorf("unexpected order: %v", ms)
	}
}

func TestLoadFiles_MissingFile(t *testing.T) {
	_, _, err := LoadFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.csv")}, FormatAuto)
	if err == nil {
		t.Error("expected error for missing file")
	}
}
