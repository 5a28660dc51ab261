// Package ingest reads measurement series from CSV and JSON files.
//
// Malformed records do not abort a file: each file yields the measurements
// that parsed plus a Result describing what was skipped and why.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/logging"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

// Format identifies an input file format.
type Format int

const (
	// FormatAuto picks the format from the file extension.
	FormatAuto Format = iota
	FormatCSV
	FormatJSON
)

// ParseFormat parses a format name. Empty or "auto" selects FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, errors.ErrUnsupportedFormat)
	}
}

// Result summarizes an ingest run.
type Result struct {
	Total  int      // records seen
	Loaded int      // records parsed into measurements
	Failed int      // records skipped
	Errors []string // one message per skipped record
}

// merge folds other into r.
func (r *Result) merge(other *Result) {
	r.Total += other.Total
	r.Loaded += other.Loaded
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

// timeLayouts are the accepted timestamp formats, tried in order.
var timeLayouts = []string{
	measurement.TimeLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTime parses a timestamp in any accepted layout.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp format: %s", s)
}

// LoadFile reads measurements from a single file.
func LoadFile(path string, format Format) ([]measurement.Measurement, *Result, error) {
	if format == FormatAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			format = FormatCSV
		case ".json":
			format = FormatJSON
		default:
			return nil, nil, fmt.Errorf("%s: %w", path, errors.ErrUnsupportedFormat)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input file")
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		return ReadCSV(f)
	case FormatJSON:
		return ReadJSON(f)
	default:
		return nil, nil, errors.ErrUnsupportedFormat
	}
}

// LoadFiles reads measurements from several files concurrently and merges
// the results. File order determines the merged measurement order, so the
// outcome is deterministic regardless of scheduling.
func LoadFiles(ctx context.Context, paths []string, format Format) ([]measurement.Measurement, *Result, error) {
	log := logging.Component("ingest")

	perFile := make([][]measurement.Measurement, len(paths))
	perResult := make([]*Result, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			ms, res, err := LoadFile(path, format)
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			log.Debug("file loaded", "path", path, "measurements", len(ms), "skipped", res.Failed)
			perFile[i] = ms
			perResult[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var all []measurement.Measurement
	result := &Result{}
	for i := range paths {
		all = append(all, perFile[i]...)
		result.merge(perResult[i])
	}

	return all, result, nil
}
