// Package adc provides analog sampling with hardware abstraction.
// The real implementation bit-bangs an MCP3008 converter over the Linux
// GPIO character device. The fake implementation allows testing without
// hardware.
package adc

// Reader produces raw analog samples.
type Reader interface {
	// Read returns one sample in [0, Max].
	Read() (int, error)

	// Close releases hardware resources.
	Close() error
}

// Max is the largest possible sample value. The MCP3008 is a 10-bit
// converter, so samples span 0-1023.
const Max = 1023

// Default wiring (BCM numbering). The bit-banged bus reuses the SPI0
// header pins so the same wiring works if a move to hardware SPI ever
// happens.
const (
	DefaultPinCLK  = 11 // SCLK
	DefaultPinMOSI = 10 // DIN on the MCP3008
	DefaultPinMISO = 9  // DOUT on the MCP3008
	DefaultPinCS   = 8  // CE0
)

// DefaultChannel is the converter input the dial potentiometer is wired to.
const DefaultChannel = 0
