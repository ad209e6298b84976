// cmd/boardtest/main.go
package main

import (
	"context"
	"runtime"
	"time"

	"f4disco/drivers/bl24cm1a"
	"f4disco/drivers/fm25q08b"
	"f4disco/internal/platform"
	"f4disco/internal/selftest"
	"f4disco/internal/timebase"
)

const (
	eepromOffset = 0x1F000
	flashAddr    = 0xF0000
	patternLen   = 2 * fm25q08b.PageSize
	stepTicks    = 300
)

func log(line string) { println(line) }

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[boardtest] start on", platform.BoardID)

	b, err := platform.Open(platform.SerialConfig{})
	if err != nil {
		println("[boardtest] board:", err.Error())
		return
	}
	clk := timebase.New()
	clk.SetIdle(runtime.Gosched)
	timebase.Start(context.Background(), clk, timebase.DefaultTick)

	leds := []platform.OutPin{b.LEDs.Green, b.LEDs.Orange, b.LEDs.Red, b.LEDs.Blue}
	for _, l := range leds {
		l.Set(true)
		clk.Sleep(stepTicks)
		l.Set(false)
	}

	pass := true
	ee := bl24cm1a.New(b.EEPROMBus)
	ee.Configure(bl24cm1a.Config{Delay: clk.Sleep})
	if err := selftest.EEPROM(ee, eepromOffset, selftest.Pattern(patternLen, 0x00), log); err != nil {
		println("[boardtest] eeprom FAIL:", err.Error())
		pass = false
	}
	fl := fm25q08b.New(b.FlashBus, b.FlashCS)
	fl.Configure(fm25q08b.Config{Delay: clk.Sleep})
	if err := selftest.Flash(fl, flashAddr, selftest.Pattern(patternLen, 0x55), log); err != nil {
		println("[boardtest] flash FAIL:", err.Error())
		pass = false
	}

	result := b.LEDs.Green
	if !pass {
		result = b.LEDs.Red
	}
	result.Set(true)
	println("[boardtest] done, pass =", pass)
	for {
		time.Sleep(time.Second)
	}
}
