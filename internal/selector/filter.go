// Package selector converts a noisy analog reading into a stable discrete
// selection. This package has NO external dependencies (no ADC, MQTT, OS,
// or time) — it is pure arithmetic and state.
//
// Instead of simple division, the input range is partitioned into N selector
// segments separated by deadzone buffers. While the reading sits inside a
// deadzone the selection does not change; once it crosses into the next
// segment the sticky bounds move with it, so the reading must travel back
// across the whole deadzone to revert. A reading hovering noisily on a
// boundary therefore never chatters between adjacent positions.
//
// For example, 2 positions over 0–100 with a deadzone fraction of 0.1:
//
//	position 0:  0 - 54  (sticky range)
//	deadzone:   45 - 54
//	position 1: 45 - 100 (sticky range)
//
// Starting at position 0, the reading must rise above 54 to select 1; once
// there, it must fall below 45 to return to 0.
package selector

// direction selects which boundary of a segment to compute.
type direction int

const (
	upper direction = iota
	lower
)

// Filter maps integer readings in [rangeMin, rangeMax] onto a stable
// position index in [0, numPositions-1] with deadzone hysteresis.
//
// The zero value is not usable; construct with New.
type Filter struct {
	// Config
	configChanged bool // set by the setters, cleared by recalculate
	rangeMin      int
	rangeMax      int
	numPositions  int
	deadzone      float64 // fraction of the per-gap budget, 0 - 1.0

	// Widths derived from config, in input units
	selectorWidth int
	deadzoneWidth int

	// Selection state
	current  int // last reported position, 0-indexed
	edgeLow  int // lower sticky bound of the current position
	edgeHigh int // upper sticky bound of the current position
}

// Zone is the sticky input range of one position. Adjacent zones overlap by
// the deadzone width — that overlap is the hysteresis band.
type Zone struct {
	Index int
	Low   int
	High  int
}

// New creates a Filter over the given input range with numPositions output
// positions and the given deadzone fraction. All arguments are normalized
// the same way the setters normalize them, then the filter is primed by
// evaluating the bottom of the range so it always holds a valid selection.
func New(rangeMin, rangeMax, numPositions int, deadzone float64) *Filter {
	f := &Filter{}
	f.SetRange(rangeMin, rangeMax)
	f.SetNumPositions(numPositions)
	f.SetDeadzone(deadzone)

	f.Evaluate(f.rangeMin) // initial selection is the bottom of the range
	return f
}

// SetRange sets the inclusive input range. Readings outside the range are
// clamped to it. Reversed bounds are swapped rather than rejected.
func (f *Filter) SetRange(rangeMin, rangeMax int) {
	if rangeMax < rangeMin {
		rangeMin, rangeMax = rangeMax, rangeMin
	}
	f.rangeMin = rangeMin
	f.rangeMax = rangeMax
	f.configChanged = true
}

// SetNumPositions sets the number of output positions. Zero is coerced to
// one — a selector cannot have zero segments.
func (f *Filter) SetNumPositions(n int) {
	if n < 1 {
		n = 1
	}
	f.numPositions = n
	f.configChanged = true
}

// SetDeadzone sets the deadzone size as a fraction of the available gap
// budget, clamped into [0, 1]. Larger deadzones tolerate more noise but
// require the input to travel farther to change position.
func (f *Filter) SetDeadzone(fraction float64) {
	if fraction < 0.0 {
		fraction = 0.0
	} else if fraction > 1.0 {
		fraction = 1.0
	}
	f.deadzone = fraction
	f.configChanged = true
}

// Evaluate runs the filter against one reading and returns the resulting
// position, 0-indexed. Out-of-range readings are clamped. After any setter
// call the derived widths are recomputed and a full scan is forced;
// otherwise the scan is relative to the current position, costing only the
// distance moved.
func (f *Filter) Evaluate(reading int) int {
	relative := !f.configChanged
	if f.configChanged {
		f.recalculate()
	}
	return f.selection(reading, relative)
}

// Position returns the last reported position without consuming a reading.
func (f *Filter) Position() int {
	return f.current
}

// Positions returns the normalized position count.
func (f *Filter) Positions() int {
	return f.numPositions
}

// Range returns the normalized input bounds.
func (f *Filter) Range() (rangeMin, rangeMax int) {
	return f.rangeMin, f.rangeMax
}

// Bounds returns the sticky bounds of the current position, in input units.
// Readings inside [low, high] leave the selection unchanged.
func (f *Filter) Bounds() (low, high int) {
	return f.edgeLow, f.edgeHigh
}

// Zones returns the sticky range of every position. The computation is
// side-effect free: it derives widths from the current config without
// touching the dirty flag, so it is safe to call between setter and
// Evaluate without disturbing the forced full scan.
func (f *Filter) Zones() []Zone {
	sw, dw := f.widths()
	zones := make([]Zone, f.numPositions)
	for i := range zones {
		zones[i] = Zone{
			Index: i,
			Low:   f.edgeWith(i, lower, sw, dw),
			High:  f.edgeWith(i, upper, sw, dw),
		}
	}
	return zones
}

// widths derives the selector and deadzone widths from the current config.
//
// One unit of width per position is reserved as a minimum active area, so
// the deadzones cannot consume the entire range even at a fraction of 1.0.
// Every division truncates; the few units this can leave unassigned at the
// top of the range are intentional (see the package tests).
func (f *Filter) widths() (selectorWidth, deadzoneWidth int) {
	totalRange := f.rangeMax - f.rangeMin
	if totalRange < 0 {
		totalRange = -totalRange
	}

	// Budget for deadzones, keeping one unit per position active.
	deadzoneRange := totalRange - f.numPositions

	// Deadzones sit between positions, none at the ends.
	numDeadzones := f.numPositions - 1

	maxDeadzoneWidth := 0
	if numDeadzones != 0 {
		maxDeadzoneWidth = deadzoneRange / numDeadzones
	}
	deadzoneWidth = int(float64(maxDeadzoneWidth) * f.deadzone)

	// Whatever the deadzones left over is split evenly across positions.
	selectorRange := totalRange - deadzoneWidth*numDeadzones
	selectorWidth = selectorRange / f.numPositions

	return selectorWidth, deadzoneWidth
}

// recalculate refreshes the cached widths and clears the dirty flag.
func (f *Filter) recalculate() {
	f.selectorWidth, f.deadzoneWidth = f.widths()
	f.configChanged = false
}

// edge computes the inclusive Upper or Lower sticky boundary of position i
// using the cached widths. If the reading moves past these bounds the
// selection has changed.
func (f *Filter) edge(i int, dir direction) int {
	return f.edgeWith(i, dir, f.selectorWidth, f.deadzoneWidth)
}

func (f *Filter) edgeWith(i int, dir direction, selectorWidth, deadzoneWidth int) int {
	if i < 0 {
		i = 0
	}

	var edge int
	switch dir {
	case upper:
		// The upper edge of position i is the far side of the deadzone
		// above it, so the reading has to cross the whole buffer to leave.
		edge = f.rangeMin + selectorWidth*(i+1) + deadzoneWidth*(i+1)
	case lower:
		// The lower edge sits at the near side of the deadzone below, so a
		// position just entered from beneath is immediately sticky.
		k := i
		if i != 0 {
			k = i - 1
		}
		edge = f.rangeMin + selectorWidth*i + deadzoneWidth*k
	}

	if edge < f.rangeMin {
		edge = f.rangeMin
	}
	if edge > f.rangeMax {
		edge = f.rangeMax
	}
	return edge
}

// selection clamps the reading and resolves the new position. A full scan
// walks upward from position 0; a relative scan starts at the current
// position and only walks when the reading has left the sticky bounds.
func (f *Filter) selection(reading int, relative bool) int {
	if reading < f.rangeMin {
		reading = f.rangeMin
	} else if reading > f.rangeMax {
		reading = f.rangeMax
	}

	switch {
	case !relative || reading > f.edgeHigh:
		start := 0
		if relative {
			start = f.current
		}
		for i := start; i < f.numPositions; i++ {
			upperEdge := f.edge(i, upper)
			if reading > upperEdge {
				continue // above this position's upper edge, keep walking
			}
			f.current = i
			f.edgeLow = f.edge(i, lower)
			f.edgeHigh = upperEdge
			break
		}

	case reading < f.edgeLow:
		for i := f.current; i >= 0; i-- {
			lowerEdge := f.edge(i, lower)
			if reading < lowerEdge {
				continue
			}
			f.current = i
			f.edgeLow = lowerEdge
			f.edgeHigh = f.edge(i, upper)
			break
		}

	default:
		// Inside the sticky bounds — nothing moved.
	}

	return f.current
}
