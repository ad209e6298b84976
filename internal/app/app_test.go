package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"f4disco/bus"
	"f4disco/internal/dds"
	"f4disco/internal/platform"
	"f4disco/internal/timebase"
)

type fakeGen struct {
	inits []dds.Params
	err   error
}

func (g *fakeGen) Init(p dds.Params) error {
	g.inits = append(g.inits, p)
	return g.err
}

// syncBuffer is written by the dispatcher and read by the test.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type rig struct {
	app   *App
	board *platform.Board
	out   *syncBuffer
	gen   *fakeGen
	clk   *timebase.Clock
	conn  *bus.Connection
}

func newRig(t *testing.T, cfg Config, in io.Reader) *rig {
	t.Helper()
	if in == nil {
		in = strings.NewReader("")
	}
	out := &syncBuffer{}
	r := &rig{
		board: platform.OpenWith(in, out),
		out:   out,
		gen:   &fakeGen{},
		clk:   timebase.New(),
		conn:  bus.NewBus(16).NewConnection("test"),
	}
	a, err := New(cfg, Deps{
		Clock: r.clk,
		Board: r.board,
		Gen:   r.gen,
		Conn:  r.conn,
		Boot:  dds.DefaultParams,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.app = a
	return r
}

// steppingClock advances one tick per Sleep spin, so driver delays finish
// without real time passing.
func steppingClock() *timebase.Clock {
	c := timebase.New()
	c.SetIdle(func() { c.Advance(1) })
	return c
}

func testConfig() Config {
	c := DefaultConfig()
	c.Store = StoreNone
	c.ReadTimeoutMs = 5
	return c
}

func (r *rig) send(t *testing.T, s string) {
	t.Helper()
	r.app.Receive([]byte(s))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for r.app.lines.Ready() {
		r.app.Poll(ctx)
	}
	r.app.RunTasks()
}

func TestBootInitialisesGenerator(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	if len(r.gen.inits) != 1 || r.gen.inits[0] != dds.DefaultParams {
		t.Fatalf("boot inits = %+v", r.gen.inits)
	}
	sub := r.conn.Subscribe(TopicParams)
	select {
	case m := <-sub.Channel():
		if m.Payload.(dds.Params) != dds.DefaultParams {
			t.Fatalf("retained params = %+v", m.Payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no retained params")
	}
}

func TestSingleCommandScenario(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	r.send(t, "1000:128:0!")

	want := dds.Params{Frequency: 1000, Amplitude: 128, Waveform: dds.Sine}
	if r.app.Params() != want {
		t.Fatalf("params = %+v", r.app.Params())
	}
	if got := r.out.String(); got != "1000:128:0\r\n" {
		t.Fatalf("ack = %q", got)
	}
	if n := len(r.gen.inits); n != 2 {
		t.Fatalf("generator inits = %d, want boot + 1", n)
	}
}

func TestTwoCommandsInOrder(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	acks := r.conn.Subscribe(TopicAck)
	r.send(t, "500:64:2;9000:200:0;!")

	if got := r.out.String(); got != "500:64:2\r\n9000:200:0\r\n" {
		t.Fatalf("acks = %q", got)
	}
	want := dds.Params{Frequency: 9000, Amplitude: 200, Waveform: dds.Sine}
	if r.app.Params() != want {
		t.Fatalf("params = %+v", r.app.Params())
	}
	if r.gen.inits[1] != (dds.Params{Frequency: 500, Amplitude: 64, Waveform: dds.Triangle}) {
		t.Fatalf("first init = %+v", r.gen.inits[1])
	}
	for _, w := range []string{"500:64:2", "9000:200:0"} {
		select {
		case m := <-acks.Channel():
			if m.Payload != w {
				t.Fatalf("bus ack = %v, want %s", m.Payload, w)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("missing bus ack %s", w)
		}
	}
}

func TestNoiseAndInvalidFields(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	r.send(t, "\r\nset 0:300:1 now!")

	want := dds.DefaultParams
	want.Waveform = dds.Square
	if r.app.Params() != want {
		t.Fatalf("params = %+v, want only waveform changed", r.app.Params())
	}
	if got := r.out.String(); got != "0:300:1\r\n" {
		t.Fatalf("ack = %q", got)
	}
}

func TestPartialLineSurvivesTimeout(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	ctx := context.Background()

	r.app.Receive([]byte("12"))
	r.app.Poll(ctx) // times out with "12" held
	if r.app.lines.Pending() != 2 {
		t.Fatalf("pending = %d", r.app.lines.Pending())
	}
	r.app.Poll(ctx) // no byte waiting: runs the tasks
	if r.out.String() != "" {
		t.Fatalf("early ack %q", r.out.String())
	}

	r.send(t, "00:5:1!")
	if r.app.Params().Frequency != 1200 || r.app.Params().Amplitude != 5 {
		t.Fatalf("params = %+v", r.app.Params())
	}
}

func TestQueueOverflowRejectsNew(t *testing.T) {
	cfg := testConfig()
	cfg.QueueCap = 2
	r := newRig(t, cfg, nil)

	if n := r.app.Dispatch([]byte("1:1:0;2:2:0;3:3:0")); n != 2 {
		t.Fatalf("accepted %d, want 2", n)
	}
	if r.app.Stats().QueueDrops != 1 {
		t.Fatalf("stats = %+v", r.app.Stats())
	}
	if !r.board.LEDs.Orange.(*platform.FakePin).Get() {
		t.Fatal("orange LED not lit on overflow")
	}
	r.app.RunTasks()
	if got := r.out.String(); got != "1:1:0\r\n2:2:0\r\n" {
		t.Fatalf("acks = %q", got)
	}
}

func TestGeneratorErrorStillAcks(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	r.gen.err = errors.New("spi")
	r.send(t, "700:10:1!")

	if r.out.String() != "700:10:1\r\n" {
		t.Fatalf("ack = %q", r.out.String())
	}
	if !r.board.LEDs.Red.(*platform.FakePin).Get() {
		t.Fatal("red LED not lit")
	}
	if r.app.Stats().Errors != 1 {
		t.Fatalf("errors = %d", r.app.Stats().Errors)
	}
}

func TestButtonCyclesBlinkMode(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	modes := r.conn.Subscribe(TopicMode)
	btn := r.board.Button.(*platform.FakePin)

	btn.Press()
	r.app.RunTasks()
	if r.app.Mode().String() != "medium" {
		t.Fatalf("mode = %s", r.app.Mode())
	}

	btn.Press() // inside the debounce window
	r.app.RunTasks()
	if r.app.Mode().String() != "medium" {
		t.Fatalf("bounce changed mode to %s", r.app.Mode())
	}

	r.clk.Advance(100)
	btn.Press()
	r.app.RunTasks()
	if r.app.Mode().String() != "long" {
		t.Fatalf("mode = %s", r.app.Mode())
	}

	select {
	case m := <-modes.Channel():
		if m.Payload != "medium" {
			t.Fatalf("first mode message = %v", m.Payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no mode message")
	}
}

func TestBlinkFollowsMode(t *testing.T) {
	r := newRig(t, testConfig(), nil)
	green := r.board.LEDs.Green.(*platform.FakePin)

	r.clk.Advance(99)
	r.app.RunTasks()
	if green.Sets() != 0 {
		t.Fatal("blink ran before its period")
	}
	r.clk.Advance(1)
	r.app.RunTasks()
	if !green.Get() {
		t.Fatal("first blink step must light the LED")
	}
}

func TestParamsPersistAcrossRestart(t *testing.T) {
	cfg := testConfig()
	cfg.Store = StoreEEPROM
	board := platform.OpenWith(strings.NewReader(""), io.Discard)

	st, err := OpenStore(cfg, board, steppingClock())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	a, err := New(cfg, Deps{Clock: timebase.New(), Board: board, Gen: &fakeGen{}, Store: st, Boot: dds.DefaultParams})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Dispatch([]byte("4321:99:2"))
	a.RunTasks()

	st2, _ := OpenStore(cfg, board, steppingClock())
	gen := &fakeGen{}
	b, err := New(cfg, Deps{Clock: timebase.New(), Board: board, Gen: gen, Store: st2, Boot: dds.DefaultParams})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := dds.Params{Frequency: 4321, Amplitude: 99, Waveform: dds.Triangle}
	if b.Params() != want || gen.inits[0] != want {
		t.Fatalf("restored %+v, init %+v", b.Params(), gen.inits)
	}
}

func TestRunEndToEnd(t *testing.T) {
	r := newRig(t, testConfig(), strings.NewReader("1000:128:0!"))
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := r.app.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Run = %v", err)
	}
	if got := r.out.String(); got != "1000:128:0\r\n" {
		t.Fatalf("ack = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	c := Config{}
	if err := c.Normalize(); err != nil {
		t.Fatalf("zero config: %v", err)
	}
	if c.Terminator != "!" || c.QueueCap != dds.DefaultQueueCap || c.BlinkMs != [3]uint32{100, 200, 500} {
		t.Fatalf("defaults not applied: %+v", c)
	}
	for _, term := range []string{";", "5", ":", "!!"} {
		c := DefaultConfig()
		c.Terminator = term
		if err := c.Normalize(); err == nil {
			t.Fatalf("terminator %q accepted", term)
		}
	}
	c = DefaultConfig()
	c.Store = "sd"
	if err := c.Normalize(); err == nil {
		t.Fatal("unknown store accepted")
	}
}

func TestDriverDelaysSleepOnClock(t *testing.T) {
	cfg := testConfig()
	cfg.Store = StoreEEPROM
	board := platform.OpenWith(strings.NewReader(""), io.Discard)

	clk := steppingClock()
	st, err := OpenStore(cfg, board, clk)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	before := clk.Now()
	if err := st.Save(dds.Params{Frequency: 5, Amplitude: 6, Waveform: dds.Square}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := clk.Now() - before; got < 5 {
		t.Fatalf("write cycle took %d ticks, want >= 5", got)
	}

	before = clk.Now()
	if err := NewSynth(board, 0, clk).Init(dds.DefaultParams); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := clk.Now() - before; got < 20 {
		t.Fatalf("reset settle took %d ticks, want >= 20", got)
	}
}

func TestBurstLongerThanRingIsNotLost(t *testing.T) {
	const lines = 60
	r := newRig(t, testConfig(), strings.NewReader(strings.Repeat("1000:128:0!", lines)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.app.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for strings.Count(r.out.String(), "\r\n") < lines && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if n := strings.Count(r.out.String(), "\r\n"); n != lines {
		t.Fatalf("acked %d of %d", n, lines)
	}
	st := r.app.Stats()
	if st.RxDrops != 0 || st.QueueDrops != 0 || st.Executed != lines {
		t.Fatalf("stats = %+v", st)
	}
}

func TestTasksRunWhileBytesTrickle(t *testing.T) {
	cfg := testConfig()
	cfg.BlinkMs = [3]uint32{20, 40, 100}
	cfg.ReadTimeoutMs = 10
	pr, pw := io.Pipe()
	r := newRig(t, cfg, pr)
	green := r.board.LEDs.Green.(*platform.FakePin)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	timebase.Start(ctx, r.clk, time.Millisecond)
	go func() {
		defer pw.Close()
		for ctx.Err() == nil {
			if _, err := pw.Write([]byte("1")); err != nil {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}()

	err := r.app.Run(ctx)
	pr.Close()
	if err != context.DeadlineExceeded {
		t.Fatalf("Run = %v", err)
	}
	if green.Sets() < 2 {
		t.Fatalf("blink toggled %d times while bytes trickled in", green.Sets())
	}
	if r.out.String() != "" {
		t.Fatalf("unterminated input acked: %q", r.out.String())
	}
}
