package parquet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

func testSeries(t *testing.T) []measurement.Measurement {
	t.Helper()
	mk := func(h, min, sec int, typ measurement.Type, v float64) measurement.Measurement {
		m, err := measurement.New(time.Date(2017, 1, 3, h, min, sec, 0, time.UTC), typ, v)
		if err != nil {
			t.Fatalf("measurement.New: %v", err)
		}
		return m
	}

	return []measurement.Measurement{
		mk(10, 5, 0, measurement.TypeSpO2, 97.17),
		mk(10, 5, 0, measurement.TypeTemperature, 35.79),
		mk(10, 10, 0, measurement.TypeSpO2, 95.08),
		mk(10, 10, 0, measurement.TypeTemperature, 35.01),
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.parquet")
	series := testSeries(t)

	w, err := NewWriter(path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(series); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.RowCount() != int64(len(series)) {
		t.Errorf("expected %d rows written, got %d", len(series), w.RowCount())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	if r.NumRows() != int64(len(series)) {
		t.Errorf("expected %d rows, got %d", len(series), r.NumRows())
	}

	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(series) {
		t.Fatalf("expected %d measurements, got %d", len(series), len(got))
	}

	for i := range series {
		if !got[i].Time.Equal(series[i].Time) {
			t.Errorf("[%d] time = %v, want %v", i, got[i].Time, series[i].Time)
		}
		if got[i].Type != series[i].Type {
			t.Errorf("[%d] type = %v, want %v", i, got[i].Type, series[i].Type)
		}
		if got[i].Value != series[i].Value {
			t.Errorf("[%d] value = %v, want %v", i, got[i].Value, series[i].Value)
		}
	}
}

func TestWriteFile(t *testing.T) {
	// WriteFile creates intermediate directories.
	path := filepath.Join(t.TempDir(), "nested", "dir", "series.parquet")
	series := testSeries(t)

	if err := WriteFile(path, series, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(series) {
		t.Errorf("expected %d measurements, got %d", len(series), len(got))
	}
}

func TestWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.parquet")

	w, err := NewWriter(path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := w.Write(testSeries(t)); !errors.Is(err, errors.ErrWriterClosed) {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}
}

func TestWriteEmptySeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")

	w, err := NewWriter(path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(nil); err != nil {
		t.Fatalf("Write(nil): %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty series, got %d rows", len(got))
	}
}

func TestCompressionTypes(t *testing.T) {
	series := testSeries(t)

	for _, algo := range []string{"none", "snappy", "zstd", "lz4", "gzip"} {
		path := filepath.Join(t.TempDir(), algo+".parquet")
		opts := Options{Compression: ParseCompressionType(algo)}

		if err := WriteFile(path, series, opts); err != nil {
			t.Errorf("WriteFile(%s): %v", algo, err)
			continue
		}

		got, err := ReadFile(path)
		if err != nil {
			t.Errorf("ReadFile(%s): %v", algo, err)
			continue
		}
		if len(got) != len(series) {
			t.Errorf("%s: expected %d rows, got %d", algo, len(series), len(got))
		}
	}
}

func TestZstdCompressionLevels(t *testing.T) {
	series := testSeries(t)

	for _, level := range []int{1, 3, 9, 19} {
		path := filepath.Join(t.TempDir(), "series.parquet")
		opts := Options{Compression: CompressionZstd, CompressionLevel: level}

		if err := WriteFile(path, series, opts); err != nil {
			t.Errorf("WriteFile(level %d): %v", level, err)
			continue
		}

		got, err := ReadFile(path)
		if err != nil {
			t.Errorf("ReadFile(level %d): %v", level, err)
			continue
		}
		if len(got) != len(series) {
			t.Errorf("level %d: expected %d rows, got %d", level, len(series), len(got))
		}
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		in   string
		want CompressionType
	}{
		{"snappy", CompressionSnappy},
		{"zstd", CompressionZstd},
		{"lz4", CompressionLZ4},
		{"gzip", CompressionGzip},
		{"none", CompressionNone},
		{"", CompressionNone},
		{"whatever", CompressionZstd},
	}

	for _, tt := range tests {
		if got := ParseCompressionType(tt.in); got != tt.want {
			t.Errorf("ParseCompressionType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRowToMeasurement_UnknownType(t *testing.T) {
	row := MeasurementRow{TimestampMs: 1483437900000, Type: "XRAY", Value: 1.0}
	if _, err := RowToMeasurement(&row); !errors.Is(err, errors.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}
