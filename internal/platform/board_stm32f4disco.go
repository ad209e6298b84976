//go:build stm32f4disco

package platform

import (
	"context"
	"time"

	"machine"

	"f4disco/errcode"
)

// BoardID selects the embedded configuration.
const BoardID = "f4disco"

// Pin map. PA2/PA3 carry the command UART, so the AD9833 and digipot chip
// selects sit on port E.
const (
	pinFSync   = machine.PE7
	pinPotCS   = machine.PE8
	pinFlashCS = machine.PB12
	pinButton  = machine.PA0
)

var (
	segPositions = [...]machine.Pin{machine.PC15, machine.PC14, machine.PE6}
	segLines     = [7]machine.Pin{ // A..G
		machine.PE4, machine.PE2, machine.PE0, machine.PC13,
		machine.PE5, machine.PE3, machine.PE1,
	}
)

// stmSerial polls the machine UART's receive buffer.
type stmSerial struct{ u *machine.UART }

func (s *stmSerial) Write(b []byte) (int, error) { return s.u.Write(b) }

func (s *stmSerial) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		if s.u.Buffered() > 0 {
			return s.u.Read(buf)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		time.Sleep(time.Millisecond)
	}
}

func (s *stmSerial) SetBaudRate(br uint32) error { s.u.SetBaudRate(br); return nil }

// SetFormat only accepts 8N1; the USART driver has no framing control.
func (s *stmSerial) SetFormat(databits, stopbits uint8, parity string) error {
	if databits == 8 && stopbits == 1 && (parity == "" || parity == "none") {
		return nil
	}
	return errcode.Unsupported
}

func Open(sc SerialConfig) (*Board, error) {
	outputs(machine.LED_GREEN, machine.LED_ORANGE, machine.LED_RED, machine.LED_BLUE)
	outputs(pinFSync, pinPotCS, pinFlashCS)
	outputs(segPositions[:]...)
	outputs(segLines[:]...)
	pinButton.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})

	u := machine.UART1
	u.Configure(machine.UARTConfig{
		BaudRate: baudOr(sc.Baud),
		TX:       machine.UART_TX_PIN,
		RX:       machine.UART_RX_PIN,
	})

	spi := machine.SPI1
	cur := new(uint8)
	*cur = modeUnset

	i2c := &machine.I2C1
	if err := i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		return nil, errcode.Wrap(errcode.BusError, "platform.i2c", err)
	}

	b := &Board{
		Name: BoardID,
		LEDs: LEDs{
			Green:  machine.LED_GREEN,
			Orange: machine.LED_ORANGE,
			Red:    machine.LED_RED,
			Blue:   machine.LED_BLUE,
		},
		Button:    irqPin{pinButton},
		Serial:    &stmSerial{u: u},
		DDSBus:    sharedSPI{bus: spi, cur: cur, freq: 4 * machine.MHz, mode: machine.Mode2},
		FlashBus:  sharedSPI{bus: spi, cur: cur, freq: 8 * machine.MHz, mode: machine.Mode0},
		EEPROMBus: i2c,
		FSync:     pinFSync,
		PotCS:     pinPotCS,
		FlashCS:   pinFlashCS,
		Positions: toOut(segPositions[:]...),
	}
	for i, p := range segLines {
		b.Segments[i] = p
	}
	println("[platform] stm32f4disco up, uart", baudOr(sc.Baud))
	return b, nil
}
