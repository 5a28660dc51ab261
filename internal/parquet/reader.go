package parquet

import (
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

// timeFromMillis converts Unix milliseconds back to a wall-clock time.
// Files store instants; the local zone is as good as any since the data
// model does no timezone normalization.
func timeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// Reader reads measurements from a Parquet file.
type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[MeasurementRow]
	path   string
}

// NewReader creates a new measurement Parquet reader.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}

	reader := parquet.NewGenericReader[MeasurementRow](f)

	return &Reader{
		file:   f,
		reader: reader,
		path:   path,
	}, nil
}

// Read reads up to n measurements from the file.
func (r *Reader) Read(n int) ([]measurement.Measurement, error) {
	rows := make([]MeasurementRow, n)
	count, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return rowsToMeasurements(rows[:count])
}

// ReadAll reads all measurements from the file.
func (r *Reader) ReadAll() ([]measurement.Measurement, error) {
	numRows := r.reader.NumRows()
	rows := make([]MeasurementRow, numRows)

	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return rowsToMeasurements(rows[:n])
}

func rowsToMeasurements(rows []MeasurementRow) ([]measurement.Measurement, error) {
	ms := make([]measurement.Measurement, len(rows))
	for i := range rows {
		m, err := RowToMeasurement(&rows[i])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		ms[i] = m
	}
	return ms, nil
}

// NumRows returns the total number of rows in the file.
func (r *Reader) NumRows() int64 {
	return r.reader.NumRows()
}

// Close closes the reader.
func (r *Reader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Path returns the file path.
func (r *Reader) Path() string {
	return r.path
}

// ReadFile reads a whole measurement series from a Parquet file.
func ReadFile(path string) ([]measurement.Measurement, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.ReadAll()
}
