// Package dial binds an analog reader to the selector filter. It is a thin
// adapter: the reader does the sampling, the filter does the thinking, and
// this package forwards readings from one to the other.
package dial

import (
	"fmt"
	"time"

	"github.com/sweeney/dial-sensor/internal/adc"
	"github.com/sweeney/dial-sensor/internal/selector"
)

// Dial owns the input source handle and exactly one filter, by value.
type Dial struct {
	reader adc.Reader
	filter selector.Filter
}

// Sample is one reading with the position it resolved to.
type Sample struct {
	Reading  int
	Position int
}

// Event records a position change for publishing.
type Event struct {
	Timestamp time.Time
	Position  int
	Previous  int
	Label     string // optional human name for the position
	Reading   int    // raw sample that caused the change
}

// New creates a Dial over the given reader with positions output positions
// spanning the full converter range.
func New(reader adc.Reader, positions int) *Dial {
	return &Dial{
		reader: reader,
		filter: *selector.New(0, adc.Max, positions, 0.2),
	}
}

// Init primes the filter with one sample so the first Position call
// already reflects the physical dial rather than the bottom of the range.
func (d *Dial) Init() error {
	_, err := d.Position()
	if err != nil {
		return fmt.Errorf("prime dial: %w", err)
	}
	return nil
}

// Position takes a fresh sample and returns the resulting position.
// A failed read leaves the filter state untouched.
func (d *Dial) Position() (int, error) {
	s, err := d.Sample()
	if err != nil {
		return 0, err
	}
	return s.Position, nil
}

// Sample takes a fresh sample and returns both the raw reading and the
// position it resolved to.
func (d *Dial) Sample() (Sample, error) {
	reading, err := d.reader.Read()
	if err != nil {
		return Sample{}, fmt.Errorf("read adc: %w", err)
	}
	return Sample{
		Reading:  reading,
		Position: d.filter.Evaluate(reading),
	}, nil
}

// Current returns the last resolved position without sampling.
func (d *Dial) Current() int {
	return d.filter.Position()
}

// Positions returns the configured position count.
func (d *Dial) Positions() int {
	return d.filter.Positions()
}

// Zones exposes the filter's per-position sticky ranges.
func (d *Dial) Zones() []selector.Zone {
	return d.filter.Zones()
}

// SetRange passes through to the filter.
func (d *Dial) SetRange(rangeMin, rangeMax int) {
	d.filter.SetRange(rangeMin, rangeMax)
}

// SetPositions passes through to the filter.
func (d *Dial) SetPositions(n int) {
	d.filter.SetNumPositions(n)
}

// SetDeadzone passes through to the filter.
func (d *Dial) SetDeadzone(fraction float64) {
	d.filter.SetDeadzone(fraction)
}
