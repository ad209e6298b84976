// Package platform owns the board wiring: status LEDs, the user button,
// the command serial port, the SPI and I2C buses and their chip selects.
// Each target provides Open; the host build backs everything with fakes.
package platform

import (
	"tinygo.org/x/drivers"

	"f4disco/errcode"
	"f4disco/internal/button"
	"f4disco/internal/serialio"
	"f4disco/x/mathx"
)

// OutPin is a push-pull output.
type OutPin interface {
	Set(level bool)
}

// LEDs are the four status LEDs.
type LEDs struct {
	Green, Orange, Red, Blue OutPin
}

// SerialConfig selects the command port framing.
type SerialConfig struct {
	Baud     uint32 `json:"baud,omitempty"`
	DataBits uint8  `json:"databits,omitempty"`
	StopBits uint8  `json:"stopbits,omitempty"`
	Parity   string `json:"parity,omitempty"` // "none"|"even"|"odd"
}

// DefaultBaud is used when SerialConfig.Baud is zero.
const DefaultBaud = 115200

// Board is everything the application touches on a target.
type Board struct {
	Name   string
	LEDs   LEDs
	Button button.IRQPin
	Serial serialio.Port

	// DDSBus and FlashBus share one controller; each reconfigures the
	// clock mode on first use after the other.
	DDSBus    drivers.SPI
	FlashBus  drivers.SPI
	EEPROMBus drivers.I2C

	FSync   OutPin // AD9833
	PotCS   OutPin // MCP41010
	FlashCS OutPin

	// Display lines; Positions is empty on boards without a display.
	Positions []OutPin
	Segments  [7]OutPin
}

// Formatter is implemented by ports whose framing can change at runtime.
type Formatter interface {
	SetBaudRate(br uint32) error
	SetFormat(databits, stopbits uint8, parity string) error
}

// ApplySerial pushes cfg to p when p supports it. Zero fields keep 8N1.
func ApplySerial(p serialio.Port, cfg SerialConfig) error {
	f, ok := p.(Formatter)
	if !ok {
		return errcode.Unsupported
	}
	if cfg.Baud > 0 {
		if err := f.SetBaudRate(cfg.Baud); err != nil {
			return err
		}
	}
	if cfg.DataBits == 0 && cfg.StopBits == 0 && cfg.Parity == "" {
		return nil
	}
	db := mathx.Clamp(cfg.DataBits, 5, 8)
	sb := mathx.Clamp(cfg.StopBits, 1, 2)
	switch cfg.Parity {
	case "", "none", "even", "odd":
	default:
		return errcode.InvalidParams
	}
	return f.SetFormat(db, sb, cfg.Parity)
}

func baudOr(b uint32) uint32 {
	if b == 0 {
		return DefaultBaud
	}
	return b
}
