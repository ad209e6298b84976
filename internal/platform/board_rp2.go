//go:build rp2040 || rp2350

package platform

import (
	"context"

	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"f4disco/errcode"
)

// BoardID selects the embedded configuration.
const BoardID = "pico"

// Pico wiring for bench use; there is no display.
const (
	pinFSync   = machine.GP17
	pinPotCS   = machine.GP20
	pinFlashCS = machine.GP21
	pinButton  = machine.GP14
)

// rp2SerialPort adapts uartx, which already blocks with a context.
type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}
func (p *rp2SerialPort) SetBaudRate(br uint32) error { p.u.SetBaudRate(br); return nil }

func (p *rp2SerialPort) SetFormat(databits, stopbits uint8, parity string) error {
	var par uartx.UARTParity
	switch parity {
	case "even":
		par = uartx.ParityEven
	case "odd":
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return p.u.SetFormat(databits, stopbits, par)
}

func Open(sc SerialConfig) (*Board, error) {
	outputs(machine.LED, machine.GP6, machine.GP7, machine.GP8)
	outputs(pinFSync, pinPotCS, pinFlashCS)
	pinButton.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: baudOr(sc.Baud),
		TX:       machine.GP0,
		RX:       machine.GP1,
	}); err != nil {
		return nil, errcode.Wrap(errcode.BusError, "platform.uart", err)
	}

	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		SCK: machine.GP18,
		SDO: machine.GP19,
		SDI: machine.GP16,
	}); err != nil {
		return nil, errcode.Wrap(errcode.BusError, "platform.spi", err)
	}
	cur := new(uint8)
	*cur = modeUnset

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.GP4,
		SCL:       machine.GP5,
	}); err != nil {
		return nil, errcode.Wrap(errcode.BusError, "platform.i2c", err)
	}

	b := &Board{
		Name: BoardID,
		LEDs: LEDs{
			Green:  machine.LED,
			Orange: machine.GP6,
			Red:    machine.GP7,
			Blue:   machine.GP8,
		},
		Button:    irqPin{pinButton},
		Serial:    &rp2SerialPort{u: u},
		DDSBus:    sharedSPI{bus: spi, cur: cur, freq: 4 * machine.MHz, mode: machine.Mode2},
		FlashBus:  sharedSPI{bus: spi, cur: cur, freq: 8 * machine.MHz, mode: machine.Mode0},
		EEPROMBus: i2c,
		FSync:     pinFSync,
		PotCS:     pinPotCS,
		FlashCS:   pinFlashCS,
	}
	for i := range b.Segments {
		b.Segments[i] = nopPin{}
	}
	println("[platform] pico up, uart", baudOr(sc.Baud))
	return b, nil
}

type nopPin struct{}

func (nopPin) Set(bool) {}
