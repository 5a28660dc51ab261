// Package report summarizes a resampling run for inspection.
//
// For each channel it counts how many readings went in, how many buckets
// came out, and how far readings sat from the bucket boundary they were
// assigned to (the resampling lag). Lag percentiles come from a DDSketch,
// so the summary stays O(1) in memory regardless of input size.
//
// The summary never aggregates measurement values; every emitted bucket
// still carries exactly one reading's value.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/tejas7777/data-sampler/internal/measurement"
)

// TypeReport holds the per-channel summary of one resampling run.
type TypeReport struct {
	Type measurement.Type

	// Input is the number of readings of this type that went in.
	Input int64

	// Selected is the number of bucket representatives that came out.
	Selected int64

	// Discarded is the number of readings displaced by a later reading
	// in the same bucket.
	Discarded int64

	// Excluded is the number of readings before the explicit start of
	// sampling, which were never assigned to a bucket.
	Excluded int64

	// MaxLag is the largest distance between a reading and its bucket boundary.
	MaxLag time.Duration

	// Lag percentiles; nil when the sketch could not be built.
	LagP50 *time.Duration
	LagP90 *time.Duration
	LagP99 *time.Duration
}

// HasPercentiles returns true if lag percentiles are available.
func (t *TypeReport) HasPercentiles() bool {
	return t.LagP50 != nil
}

// Report summarizes one resampling run across all channels.
type Report struct {
	IntervalMinutes int
	Input           int64
	Selected        int64
	Types           []TypeReport
}

// Build summarizes a resampling run from its input and output series.
// Lag is measured against the output bucket boundaries. startOfSampling must
// be the explicit anchor the run used, or zero when the run derived its
// anchor from the input; readings before it were never assigned to a bucket,
// so they are counted as excluded and contribute no lag.
func Build(input, output []measurement.Measurement, intervalMinutes int, startOfSampling time.Time) *Report {
	start := startOfSampling.Truncate(time.Second)

	// Output boundaries per type, sorted for binary search.
	boundaries := make(map[measurement.Type][]time.Time)
	for _, m := range output {
		boundaries[m.Type] = append(boundaries[m.Type], m.Time)
	}
	for _, b := range boundaries {
		sort.Slice(b, func(i, j int) bool { return b[i].Before(b[j]) })
	}

	perType := make(map[measurement.Type]*typeAccumulator)
	for _, m := range input {
		acc := perType[m.Type]
		if acc == nil {
			acc = newTypeAccumulator(m.Type)
			perType[m.Type] = acc
		}
		acc.input++

		if !start.IsZero() && m.Time.Before(start) {
			acc.excluded++
			continue
		}

		b := boundaries[m.Type]
		idx := sort.Search(len(b), func(i int) bool { return !b[i].Before(m.Time) })
		if idx == len(b) {
			continue
		}
		acc.addLag(b[idx].Sub(m.Time))
	}

	report := &Report{IntervalMinutes: intervalMinutes}
	for _, typ := range measurement.Types {
		acc, ok := perType[typ]
		if !ok {
			continue
		}

		tr := acc.result()
		tr.Selected = int64(len(boundaries[typ]))
		tr.Discarded = tr.Input - tr.Excluded - tr.Selected
		if tr.Discarded < 0 {
			tr.Discarded = 0
		}

		report.Input += tr.Input
		report.Selected += tr.Selected
		report.Types = append(report.Types, tr)
	}

	return report
}

// typeAccumulator maintains running lag statistics for one channel.
type typeAccumulator struct {
	typ      measurement.Type
	input    int64
	excluded int64
	maxLag   time.Duration
	sketch   *ddsketch.DDSketch
}

func newTypeAccumulator(typ measurement.Type) *typeAccumulator {
	acc := &typeAccumulator{typ: typ}

	// Default relative accuracy of 1%
	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err == nil {
		acc.sketch = sketch
	}

	return acc
}

func (a *typeAccumulator) addLag(lag time.Duration) {
	if lag > a.maxLag {
		a.maxLag = lag
	}
	if a.sketch != nil {
		a.sketch.Add(lag.Seconds())
	}
}

func (a *typeAccumulator) result() TypeReport {
	tr := TypeReport{
		Type:     a.typ,
		Input:    a.input,
		Excluded: a.excluded,
		MaxLag:   a.maxLag,
	}

	if a.sketch != nil && a.sketch.GetCount() > 0 {
		p50, err50 := a.sketch.GetValueAtQuantile(0.50)
		p90, err90 := a.sketch.GetValueAtQuantile(0.90)
		p99, err99 := a.sketch.GetValueAtQuantile(0.99)
		if err50 == nil && err90 == nil && err99 == nil {
			tr.LagP50 = durationPtr(p50)
			tr.LagP90 = durationPtr(p90)
			tr.LagP99 = durationPtr(p99)
		}
	}

	return tr
}

func durationPtr(seconds float64) *time.Duration {
	d := time.Duration(seconds * float64(time.Second))
	return &d
}

// Fprint writes a human-readable rendering of the report to w.
func (r *Report) Fprint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Resampling report (interval: %dm, input: %d, selected: %d)\n",
		r.IntervalMinutes, r.Input, r.Selected); err != nil {
		return err
	}

	for i := range r.Types {
		t := &r.Types[i]
		if _, err := fmt.Fprintf(w, "  %-5s in=%d out=%d dropped=%d max_lag=%s",
			t.Type, t.Input, t.Selected, t.Discarded, t.MaxLag); err != nil {
			return err
		}
		if t.Excluded > 0 {
			if _, err := fmt.Fprintf(w, " excluded=%d", t.Excluded); err != nil {
				return err
			}
		}
		if t.HasPercentiles() {
			if _, err := fmt.Fprintf(w, " lag_p50=%s lag_p90=%s lag_p99=%s",
				t.LagP50.Round(time.Second), t.LagP90.Round(time.Second), t.LagP99.Round(time.Second)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}
