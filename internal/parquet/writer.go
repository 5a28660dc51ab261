package parquet

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// CompressionLevel for algorithms that support it (zstd: 1-22)
	CompressionLevel int
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{
		Compression:      CompressionZstd,
		CompressionLevel: 3,
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType, level int) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		if level > 0 {
			return &zstd.Codec{Level: zstdLevel(level)}
		}
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// zstdLevel maps a zstd compression level (1-22) onto the encoder tiers.
func zstdLevel(level int) zstd.Level {
	switch {
	case level < 3:
		return zstd.SpeedFastest
	case level < 6:
		return zstd.SpeedDefault
	case level < 10:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// MeasurementRow represents a measurement in Parquet format.
type MeasurementRow struct {
	TimestampMs int64   `parquet:"timestamp_ms"`
	Type        string  `parquet:"type,zstd"`
	Value       float64 `parquet:"value"`
}

// MeasurementToRow converts a Measurement to a MeasurementRow.
func MeasurementToRow(m *measurement.Measurement) MeasurementRow {
	return MeasurementRow{
		TimestampMs: m.Time.UnixMilli(),
		Type:        m.Type.String(),
		Value:       m.Value,
	}
}

// RowToMeasurement converts a MeasurementRow to a Measurement.
func RowToMeasurement(r *MeasurementRow) (measurement.Measurement, error) {
	typ, err := measurement.ParseType(r.Type)
	if err != nil {
		return measurement.Measurement{}, err
	}

	return measurement.Measurement{
		Time:  timeFromMillis(r.TimestampMs),
		Type:  typ,
		Value: r.Value,
	}, nil
}

// Writer writes measurements to a Parquet file.
type Writer struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *parquet.GenericWriter[MeasurementRow]
	rowCount int64
	closed   bool
}

// NewWriter creates a new measurement Parquet writer.
func NewWriter(path string, opts Options) (*Writer, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create file")
	}

	writerOpts := []parquet.WriterOption{
		parquet.Compression(getCompression(opts.Compression, opts.CompressionLevel)),
	}

	writer := parquet.NewGenericWriter[MeasurementRow](f, writerOpts...)

	return &Writer{
		path:   path,
		file:   f,
		writer: writer,
	}, nil
}

// Write writes measurements to the Parquet file.
func (w *Writer) Write(ms []measurement.Measurement) error {
	if len(ms) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}

	rows := make([]MeasurementRow, len(ms))
	for i := range ms {
		rows[i] = MeasurementToRow(&ms[i])
	}

	n, err := w.writer.Write(rows)
	if err != nil {
		return errors.Wrap(err, "write rows")
	}

	w.rowCount += int64(n)
	return nil
}

// Close closes the writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return errors.Wrap(err, "close writer")
	}

	return w.file.Close()
}

// RowCount returns the number of rows written.
func (w *Writer) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Path returns the file path.
func (w *Writer) Path() string {
	return w.path
}

// WriteFile writes a measurement series to a single Parquet file.
func WriteFile(path string, ms []measurement.Measurement, opts Options) error {
	w, err := NewWriter(path, opts)
	if err != nil {
		return err
	}

	if err := w.Write(ms); err != nil {
		w.Close()
		return err
	}

	return w.Close()
}
