// Package app is the polling dispatcher. One App value owns the clock, the
// task list, the parameters record, the command queue and the line reader;
// nothing lives in package state.
package app

import (
	"context"
	"time"

	"f4disco/bus"
	"f4disco/errcode"
	"f4disco/internal/button"
	"f4disco/internal/dds"
	"f4disco/internal/platform"
	"f4disco/internal/serialio"
	"f4disco/internal/store"
	"f4disco/internal/task"
	"f4disco/internal/timebase"
	"f4disco/x/shmring"
	"f4disco/x/timex"
)

// Bus topics.
var (
	TopicParams = bus.T("dds", "params")
	TopicAck    = bus.T("dds", "ack")
	TopicStats  = bus.T("dds", "stats")
	TopicMode   = bus.T("dds", "mode")
)

// rxRing holds received bytes between pump and dispatcher.
const rxRing = 256

// Stats are the dispatcher counters published on dds/stats.
type Stats struct {
	Executed    uint32 `json:"executed"`
	QueueDrops  uint32 `json:"queue_drops"`
	LineDrops   uint32 `json:"line_drops"`
	RxDrops     uint32 `json:"rx_drops"`
	ButtonDrops uint32 `json:"button_drops"`
	Errors      uint32 `json:"errors"`
}

// Deps are the collaborators New wires together. Store, Display and Conn
// may be nil.
type Deps struct {
	Clock   *timebase.Clock
	Board   *platform.Board
	Gen     dds.Generator
	Store   *store.Store
	Display task.Display
	Conn    *bus.Connection
	Boot    dds.Params
}

type App struct {
	cfg  Config
	clk  *timebase.Clock
	leds platform.LEDs
	port serialio.Port
	conn *bus.Connection

	params dds.Params
	queue  *dds.Queue
	ring   *shmring.Ring
	lines  *serialio.LineReader
	exec   *dds.Executor
	store  *store.Store
	btn    *button.Button
	modes  *task.ModeSwitch
	tasks  []task.Runner

	readTimeout time.Duration
	idle        *time.Timer
	stats       Stats
	ackOn       bool
}

// New builds the dispatcher, loads stored parameters and initialises the
// generator with them.
func New(cfg Config, d Deps) (*App, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:         cfg,
		clk:         d.Clock,
		leds:        d.Board.LEDs,
		port:        d.Board.Serial,
		conn:        d.Conn,
		params:      d.Boot,
		queue:       dds.NewQueue(cfg.QueueCap),
		ring:        shmring.New(rxRing),
		store:       d.Store,
		readTimeout: timex.Ms(int(cfg.ReadTimeoutMs)),
	}
	a.lines = serialio.NewLineReader(a.ring, cfg.term(), cfg.MaxLine)
	a.exec = dds.NewExecutor(&a.params, a.queue, d.Gen, a.port, a.applied)

	if !a.params.Valid() {
		a.params = dds.DefaultParams
	}
	if a.store != nil {
		p, err := a.store.LoadOr(a.params)
		switch errcode.Of(err) {
		case errcode.OK:
			println("[app] restored", dds.Format(p))
		case errcode.NotFound:
			println("[app] no stored parameters, using", dds.Format(p))
		default:
			a.fault("store.load", err)
		}
		a.params = p
	}

	a.tasks = append(a.tasks, a.exec)

	blink := task.NewBlink(a.clk, cfg.BlinkMs[0], a.leds.Green)
	a.tasks = append(a.tasks, blink)
	if d.Board.Button != nil {
		btn, err := button.New(a.clk, d.Board.Button, cfg.DebounceMs, 8)
		if err != nil {
			a.fault("button", err)
		} else {
			a.btn = btn
			a.modes = task.NewModeSwitch(btn, blink, task.ModePeriods(cfg.BlinkMs), a.modeChanged)
			a.tasks = append(a.tasks, a.modes)
		}
	}
	if d.Display != nil {
		a.tasks = append(a.tasks, task.NewIndicator(a.clk, cfg.IndicatorMs, d.Display, a.shown))
	}
	if a.conn != nil {
		a.tasks = append(a.tasks,
			task.NewHeartbeat(a.clk, cfg.HeartbeatMs, a.conn),
			task.NewPeriodic(a.clk, cfg.HeartbeatMs, task.Steady{}, func(task.Steady) {
				a.publish(TopicStats, a.Stats(), true)
			}),
		)
	}

	if err := d.Gen.Init(a.params); err != nil {
		a.fault("dds.init", err)
	}
	a.publish(TopicParams, a.params, true)
	return a, nil
}

// Params returns a copy of the current record.
func (a *App) Params() dds.Params { return a.params }

// Mode returns the current blink mode.
func (a *App) Mode() task.BlinkMode {
	if a.modes == nil {
		return task.ModeShort
	}
	return a.modes.Mode()
}

func (a *App) Stats() Stats {
	s := a.stats
	s.QueueDrops = a.queue.Drops()
	s.LineDrops = a.lines.Overflows()
	s.RxDrops = a.ring.Dropped()
	if a.btn != nil {
		s.ButtonDrops = a.btn.ISRDrops()
	}
	return s
}

// Receive hands raw serial bytes to the line reader, as the pump does.
func (a *App) Receive(b []byte) int { return a.ring.TryWriteFrom(b) }

// RunTasks gives every task one RunOnce in registration order and reports
// whether any of them acted.
func (a *App) RunTasks() bool {
	acted := false
	for _, t := range a.tasks {
		if t.RunOnce() {
			acted = true
		}
	}
	return acted
}

// Dispatch splits a completed line into commands and queues them. It
// returns how many were accepted.
func (a *App) Dispatch(line []byte) int {
	n := 0
	for _, cmd := range dds.SplitLine(line) {
		if err := a.queue.Push(cmd); err != nil {
			println("[app] queue full, dropped", cmd)
			a.leds.Orange.Set(true)
			continue
		}
		n++
	}
	return n
}

// Poll is one dispatcher iteration. When bytes are waiting it reads toward
// the next terminator for at most the read timeout and queues a completed
// line. The tasks then get their pass whether or not a line completed, so
// neither a trickle of bytes nor a burst of lines starves them; with nothing
// to do it waits for a byte or the next tick.
func (a *App) Poll(ctx context.Context) {
	if a.lines.Ready() {
		if line, err := a.lines.ReadLine(ctx, a.readTimeout); err == nil {
			a.Dispatch(line)
		}
	}
	if !a.RunTasks() && !a.lines.Ready() {
		a.wait(ctx)
	}
}

// Run pumps the serial port and polls until ctx ends.
func (a *App) Run(ctx context.Context) error {
	go func() {
		err := serialio.Pump(ctx, a.port, a.ring, serialio.DefaultSlice)
		if err != nil && ctx.Err() == nil {
			println("[app] serial closed:", err.Error())
		}
	}()
	println("[app] running")
	for ctx.Err() == nil {
		a.Poll(ctx)
	}
	return ctx.Err()
}

// wait yields for at most one tick or until a byte arrives.
func (a *App) wait(ctx context.Context) {
	if a.idle == nil {
		a.idle = time.NewTimer(timebase.DefaultTick)
	} else {
		timex.ResetTimer(a.idle, timebase.DefaultTick)
	}
	select {
	case <-ctx.Done():
	case <-a.ring.Readable():
	case <-a.idle.C:
	}
}

// applied runs after every executed command.
func (a *App) applied(cmd string, p dds.Params, err error) {
	a.stats.Executed++
	a.ackOn = !a.ackOn
	a.leds.Blue.Set(a.ackOn)
	if err != nil {
		a.fault("dds.init", err)
	} else {
		a.leds.Red.Set(false)
		a.leds.Orange.Set(false)
	}
	if a.store != nil {
		if serr := a.store.Save(p); serr != nil {
			a.fault("store.save", serr)
		}
	}
	a.publish(TopicAck, cmd, false)
	a.publish(TopicParams, p, true)
}

func (a *App) modeChanged(m task.BlinkMode) {
	println("[app] blink mode", m.String())
	a.publish(TopicMode, m.String(), true)
}

// shown is the value multiplexed on the display.
func (a *App) shown() uint32 {
	switch a.cfg.Show {
	case ShowWaveform:
		return uint32(a.params.Waveform)
	case ShowMode:
		return uint32(a.Mode())
	}
	return uint32(a.params.Amplitude)
}

func (a *App) fault(op string, err error) {
	a.stats.Errors++
	a.leds.Red.Set(true)
	println("[app]", op, "failed:", err.Error())
}

func (a *App) publish(t bus.Topic, payload any, retained bool) {
	if a.conn == nil {
		return
	}
	a.conn.Publish(a.conn.NewMessage(t, payload, retained))
}
