// Package sampler buckets irregularly-timed measurements onto a fixed-width
// time grid, selecting one representative reading per interval and channel.
//
// Bucketing follows a round-up policy: each measurement is assigned to the
// smallest grid line at or after its timestamp, so a reading landing exactly
// on a grid line stays on that line. Within a bucket the reading with the
// latest original timestamp is kept; readings sharing a timestamp resolve to
// the one appearing later in the input.
package sampler

import (
	"sort"
	"time"

	"github.com/tejas7777/data-sampler/internal/errors"
	"github.com/tejas7777/data-sampler/internal/measurement"
)

// DefaultIntervalMinutes is the sampling interval used when none is configured.
const DefaultIntervalMinutes = 5

// Resampler assigns measurements to fixed-width intervals. It is stateless
// apart from its configured default interval and is safe for concurrent use.
type Resampler struct {
	intervalMinutes int
}

// Options carries per-call overrides for a resampling operation.
// The zero value means "use the resampler's defaults".
type Options struct {
	// IntervalMinutes overrides the default interval when positive.
	IntervalMinutes int

	// StartOfSampling anchors the interval grid when non-zero. Measurements
	// earlier than the anchor are excluded from the result.
	StartOfSampling time.Time
}

// New creates a Resampler with the given default interval in minutes.
func New(intervalMinutes int) (*Resampler, error) {
	if intervalMinutes <= 0 {
		return nil, errors.ErrInvalidInterval
	}
	return &Resampler{intervalMinutes: intervalMinutes}, nil
}

// IntervalMinutes returns the configured default interval.
func (r *Resampler) IntervalMinutes() int {
	return r.intervalMinutes
}

// bucketKey identifies one (interval boundary, channel) group.
type bucketKey struct {
	boundary int64 // Unix seconds of the bucket's upper boundary
	typ      measurement.Type
}

// Resample maps each input measurement to its interval boundary, keeps one
// representative per (boundary, type) pair, and returns the representatives
// carrying the boundary as their timestamp. Output is sorted by boundary
// time, then by type in canonical order. Input order and sortedness do not
// matter; the input slice is never modified.
//
// An empty input yields an empty result. A per-call interval override does
// not change the resampler's stored default.
func (r *Resampler) Resample(ms []measurement.Measurement, opts *Options) ([]measurement.Measurement, error) {
	interval, err := r.resolveInterval(opts)
	if err != nil {
		return nil, err
	}

	if len(ms) == 0 {
		return nil, nil
	}

	anchor, input := r.resolveAnchor(ms, opts, interval)
	if len(input) == 0 {
		return nil, nil
	}

	step := time.Duration(interval) * time.Minute

	// Group by (boundary, type), keeping the representative per group.
	// Iterating in input order makes the tie-break deterministic: on equal
	// timestamps the later input position wins.
	selected := make(map[bucketKey]measurement.Measurement, len(input))
	for _, m := range input {
		key := bucketKey{
			boundary: bucketBoundary(anchor, m.Time, step).Unix(),
			typ:      m.Type,
		}
		cur, ok := selected[key]
		if !ok || !m.Time.Before(cur.Time) {
			selected[key] = m
		}
	}

	out := make([]measurement.Measurement, 0, len(selected))
	for key, m := range selected {
		out = append(out, measurement.Measurement{
			Time:  time.Unix(key.boundary, 0).In(anchor.Location()),
			Type:  m.Type,
			Value: m.Value,
		})
	}

	// Map iteration order is unspecified; sort explicitly.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Type < out[j].Type
	})

	return out, nil
}

// ResampleByType restricts Resample to a single measurement type. It is
// equivalent to filtering the input to that type first.
func (r *Resampler) ResampleByType(ms []measurement.Measurement, typ measurement.Type, opts *Options) ([]measurement.Measurement, error) {
	if !typ.Valid() {
		return nil, errors.ErrUnknownType
	}

	filtered := make([]measurement.Measurement, 0, len(ms))
	for _, m := range ms {
		if m.Type == typ {
			filtered = append(filtered, m)
		}
	}

	return r.Resample(filtered, opts)
}

// ResampleGrouped runs Resample and returns the results keyed by type.
// Each per-type slice is sorted by bucket time.
func (r *Resampler) ResampleGrouped(ms []measurement.Measurement, opts *Options) (map[measurement.Type][]measurement.Measurement, error) {
	flat, err := r.Resample(ms, opts)
	if err != nil {
		return nil, err
	}

	grouped := make(map[measurement.Type][]measurement.Measurement)
	for _, m := range flat {
		grouped[m.Type] = append(grouped[m.Type], m)
	}
	return grouped, nil
}

// resolveInterval validates and applies a per-call interval override.
func (r *Resampler) resolveInterval(opts *Options) (int, error) {
	if opts == nil || opts.IntervalMinutes == 0 {
		return r.intervalMinutes, nil
	}
	if opts.IntervalMinutes < 0 {
		return 0, errors.ErrInvalidInterval
	}
	return opts.IntervalMinutes, nil
}

// resolveAnchor determines the grid anchor and the measurements in scope.
//
// With an explicit StartOfSampling the anchor is that instant (truncated to
// whole seconds, like any measurement timestamp) and earlier measurements
// are dropped. Otherwise the anchor is the earliest input timestamp rounded
// down to the wall-clock interval grid: the minute floored to a multiple of
// the interval within its hour, seconds zeroed. Intervals of an hour or more
// round down to the top of the hour.
func (r *Resampler) resolveAnchor(ms []measurement.Measurement, opts *Options, interval int) (time.Time, []measurement.Measurement) {
	if opts != nil && !opts.StartOfSampling.IsZero() {
		anchor := opts.StartOfSampling.Truncate(time.Second)
		kept := make([]measurement.Measurement, 0, len(ms))
		for _, m := range ms {
			if !m.Time.Before(anchor) {
				kept = append(kept, m)
			}
		}
		return anchor, kept
	}

	earliest := ms[0].Time
	for _, m := range ms[1:] {
		if m.Time.Before(earliest) {
			earliest = m.Time
		}
	}
	return truncateToGrid(earliest, interval), ms
}

// truncateToGrid rounds t down to the wall-clock grid for the interval.
func truncateToGrid(t time.Time, intervalMinutes int) time.Time {
	minute := t.Minute()
	if intervalMinutes < 60 {
		minute -= minute % intervalMinutes
	} else {
		minute = 0
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}

// bucketBoundary returns the smallest grid line at or after ts.
// ts is never before the anchor here.
func bucketBoundary(anchor, ts time.Time, step time.Duration) time.Time {
	delta := ts.Sub(anchor)
	steps := delta / step
	if delta%step != 0 {
		steps++
	}
	return anchor.Add(steps * step)
}
