package sampler

import (
	"fmt"
	"io"
	"os"

	"github.com/tejas7777/data-sampler/internal/measurement"
)

// Fprint writes measurements to w, one per line, as
// "{2017-01-03T10:05:00, SPO2, 97.17}".
func Fprint(w io.Writer, data []measurement.Measurement) error {
	for _, m := range data {
		if _, err := fmt.Fprintf(w, "{%s}\n", m); err != nil {
			return err
		}
	}
	return nil
}

// FprintGrouped writes per-type measurement blocks to w:
//
//	Measurement Type: TEMP
//	  {2024-01-01T10:05:00, 36.50}
//
// Types are emitted in canonical order; absent types are skipped.
func FprintGrouped(w io.Writer, data map[measurement.Type][]measurement.Measurement) error {
	for _, typ := range measurement.Types {
		ms, ok := data[typ]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "Measurement Type: %s\n", typ); err != nil {
			return err
		}
		for _, m := range ms {
			if _, err := fmt.Fprintf(w, "  {%s, %.2f}\n", m.Time.Format(measurement.TimeLayout), m.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Print writes measurements to stdout.
func Print(data []measurement.Measurement) {
	Fprint(os.Stdout, data)
}

// PrintGrouped writes per-type measurement blocks to stdout.
func PrintGrouped(data map[measurement.Type][]measurement.Measurement) {
	FprintGrouped(os.Stdout, data)
}
