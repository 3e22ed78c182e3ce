//go:build linux

package adc

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader samples an MCP3008 on actual hardware by bit-banging its SPI
// protocol over four GPIO lines. The converter tolerates a slow, irregular
// clock, so driving the bus from userspace is fine at polling rates.
type RealReader struct {
	chip    *gpiocdev.Chip
	clk     *gpiocdev.Line
	mosi    *gpiocdev.Line
	miso    *gpiocdev.Line
	cs      *gpiocdev.Line
	channel int
}

// NewRealReader opens the GPIO lines and prepares the bus. The channel is
// the MCP3008 input (0-7) the potentiometer is wired to.
func NewRealReader(pinCLK, pinMOSI, pinMISO, pinCS, channel int) (*RealReader, error) {
	if channel < 0 || channel > 7 {
		return nil, fmt.Errorf("adc channel %d out of range 0-7", channel)
	}

	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip, channel: channel}

	// Idle state: clock low, chip select high (deasserted).
	r.clk, err = chip.RequestLine(pinCLK, gpiocdev.AsOutput(0))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request CLK pin %d: %w", pinCLK, err)
	}
	r.mosi, err = chip.RequestLine(pinMOSI, gpiocdev.AsOutput(0))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request MOSI pin %d: %w", pinMOSI, err)
	}
	r.miso, err = chip.RequestLine(pinMISO, gpiocdev.AsInput)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request MISO pin %d: %w", pinMISO, err)
	}
	r.cs, err = chip.RequestLine(pinCS, gpiocdev.AsOutput(1))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request CS pin %d: %w", pinCS, err)
	}

	return r, nil
}

// Read performs one single-ended conversion and returns the 10-bit result.
func (r *RealReader) Read() (int, error) {
	if err := r.cs.SetValue(0); err != nil {
		return 0, fmt.Errorf("assert CS: %w", err)
	}
	// Deassert CS whatever happens so the next conversion starts clean.
	defer r.cs.SetValue(1)

	// Request frame: start bit, single-ended mode, three channel bits.
	request := 0x18 | r.channel // 1,1,D2,D1,D0
	for i := 4; i >= 0; i-- {
		bit := (request >> i) & 1
		if err := r.mosi.SetValue(bit); err != nil {
			return 0, fmt.Errorf("write request bit: %w", err)
		}
		if err := r.pulseClock(); err != nil {
			return 0, err
		}
	}

	// One clock for the converter's sample period, one for the null bit.
	for i := 0; i < 2; i++ {
		if err := r.pulseClock(); err != nil {
			return 0, err
		}
	}

	// Ten data bits, MSB first.
	value := 0
	for i := 0; i < 10; i++ {
		bit, err := r.miso.Value()
		if err != nil {
			return 0, fmt.Errorf("read data bit: %w", err)
		}
		value = value<<1 | bit
		if err := r.pulseClock(); err != nil {
			return 0, err
		}
	}

	return value, nil
}

func (r *RealReader) pulseClock() error {
	if err := r.clk.SetValue(1); err != nil {
		return fmt.Errorf("clock high: %w", err)
	}
	if err := r.clk.SetValue(0); err != nil {
		return fmt.Errorf("clock low: %w", err)
	}
	return nil
}

// Close releases the GPIO lines. Output lines are reverted to inputs
// (matching Pi boot defaults) before closing so the converter is not left
// mid-conversation across a daemon restart.
func (r *RealReader) Close() error {
	var errs []error

	for _, line := range []*gpiocdev.Line{r.clk, r.mosi, r.cs} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if r.miso != nil {
		if err := r.miso.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close MISO: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
