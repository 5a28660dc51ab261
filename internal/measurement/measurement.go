// Package measurement defines the vital-sign measurement value type and its
// closed set of channel types. Measurements are immutable once constructed;
// the resampler only reads and copies them.
package measurement

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tejas7777/data-sampler/internal/errors"
)

// TimeLayout is the timestamp format used for display and ingest.
// Timestamps carry no implied timezone conversion.
const TimeLayout = "2006-01-02T15:04:05"

// Type indicates the sensor channel a measurement came from.
// The set is closed-world; the canonical ordering is the declaration order.
type Type int

const (
	// TypeSpO2 is a blood oxygen saturation reading, in percent.
	TypeSpO2 Type = iota + 1
	// TypeHeartRate is a heart rate reading, in beats per minute.
	TypeHeartRate
	// TypeTemperature is a body temperature reading, in degrees Celsius.
	TypeTemperature
)

// Types lists all known measurement types in canonical order.
var Types = []Type{TypeSpO2, TypeHeartRate, TypeTemperature}

// String returns the display name of the measurement type.
func (t Type) String() string {
	switch t {
	case TypeSpO2:
		return "SPO2"
	case TypeHeartRate:
		return "HR"
	case TypeTemperature:
		return "TEMP"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known measurement type.
func (t Type) Valid() bool {
	return t >= TypeSpO2 && t <= TypeTemperature
}

// ParseType parses a display name into a Type. Matching is case-insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SPO2":
		return TypeSpO2, nil
	case "HR":
		return TypeHeartRate, nil
	case "TEMP":
		return TypeTemperature, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, errors.ErrUnknownType)
	}
}

// Measurement is a single timestamped sensor reading.
// Two measurements with identical fields are interchangeable.
type Measurement struct {
	Time  time.Time
	Type  Type
	Value float64
}

// New constructs a validated Measurement. The timestamp is truncated to
// whole seconds; sub-second precision is not part of the data model.
func New(t time.Time, typ Type, value float64) (Measurement, error) {
	if t.IsZero() {
		return Measurement{}, errors.NewMissingField("timestamp")
	}
	if !typ.Valid() {
		return Measurement{}, fmt.Errorf("type %d: %w", int(typ), errors.ErrUnknownType)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Measurement{}, errors.NewInvalidValue("value", value, "must be finite")
	}

	return Measurement{
		Time:  t.Truncate(time.Second),
		Type:  typ,
		Value: value,
	}, nil
}

// MustNew is like New but panics on error. Intended for tests and
// compile-time-constant inputs.
func MustNew(t time.Time, typ Type, value float64) Measurement {
	m, err := New(t, typ, value)
	if err != nil {
		panic(err)
	}
	return m
}

// Validate reports whether the measurement is well-formed. The resampler
// assumes validated input; this exists for defensive checks at boundaries.
func (m Measurement) Validate() error {
	_, err := New(m.Time, m.Type, m.Value)
	return err
}

// String renders the measurement as "2017-01-03T10:04:45, TEMP, 35.79".
func (m Measurement) String() string {
	return fmt.Sprintf("%s, %s, %.2f", m.Time.Format(TimeLayout), m.Type, m.Value)
}
