package main

import (
	"context"
	"runtime"
	"time"

	"f4disco/bus"
	"f4disco/internal/app"
	"f4disco/internal/platform"
	"f4disco/internal/timebase"
	"f4disco/services/config"
	"f4disco/services/telemetry"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot", platform.BoardID)

	ctx := config.WithDevice(context.Background(), platform.BoardID)
	b := bus.NewBus(8)
	config.NewService().Start(ctx, b.NewConnection("config"))

	conn := b.NewConnection("main")
	appCfg := app.DefaultConfig()
	ddsCfg := app.DefaultDDSConfig()
	var serialCfg platform.SerialConfig
	load(ctx, conn, "app", &appCfg)
	load(ctx, conn, "dds", &ddsCfg)
	load(ctx, conn, "serial", &serialCfg)

	board, err := platform.Open(serialCfg)
	if err != nil {
		println("[main] board:", err.Error())
		return
	}
	if serialCfg.DataBits != 0 {
		if err := platform.ApplySerial(board.Serial, serialCfg); err != nil {
			println("[main] serial format:", err.Error())
		}
	}

	clk := timebase.New()
	clk.SetIdle(runtime.Gosched)
	timebase.Start(ctx, clk, timebase.DefaultTick)

	if err := appCfg.Normalize(); err != nil {
		println("[main] app config:", err.Error(), "- using defaults")
		appCfg = app.DefaultConfig()
	}
	st, err := app.OpenStore(appCfg, board, clk)
	if err != nil {
		println("[main] store", appCfg.Store, "unavailable:", err.Error())
		board.LEDs.Red.Set(true)
	}

	deps := app.Deps{
		Clock: clk,
		Board: board,
		Gen:   app.NewSynth(board, ddsCfg.MCLK, clk),
		Store: st,
		Conn:  b.NewConnection("app"),
		Boot:  ddsCfg.Params,
	}
	if d := app.NewDisplay(board); d != nil {
		deps.Display = d
	}

	_ = (&telemetry.Service{}).Start(ctx, b.NewConnection("telemetry"))

	a, err := app.New(appCfg, deps)
	if err != nil {
		println("[main] app:", err.Error())
		return
	}
	_ = a.Run(ctx)
}

// load decodes config/<key> into dst, keeping dst as is when the key is
// absent.
func load[T any](ctx context.Context, conn *bus.Connection, key string, dst *T) {
	lctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := config.Load(lctx, conn, key, dst); err != nil {
		println("[main] config", key+":", err.Error())
	}
}
