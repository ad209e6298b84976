// Package task implements cooperative periodic tasks on top of the tick
// clock. A task never blocks: each RunOnce either does nothing or performs
// exactly one step of its phase sequence.
package task

import "f4disco/internal/timebase"

// Phase is a closed, ordered set of task states. Next is the transition
// function and must cycle through every member.
type Phase[P any] interface {
	comparable
	Next() P
}

// Runner is what the dispatcher polls once per pass.
type Runner interface {
	// RunOnce reports whether the task acted.
	RunOnce() bool
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func() bool

func (f RunnerFunc) RunOnce() bool { return f() }

// Periodic performs one step per elapsed period. Missed periods are not
// caught up: a late call still performs a single step.
type Periodic[P Phase[P]] struct {
	clk    *timebase.Clock
	period uint32
	last   uint32
	phase  P
	step   func(P)
}

// NewPeriodic returns a task whose first step is due one period from now.
func NewPeriodic[P Phase[P]](clk *timebase.Clock, period uint32, first P, step func(P)) *Periodic[P] {
	return &Periodic[P]{
		clk:    clk,
		period: period,
		last:   clk.Now(),
		phase:  first,
		step:   step,
	}
}

// RunOnce performs the current phase's step and advances to the next phase
// if a period has elapsed since the last run. Otherwise it changes nothing.
func (t *Periodic[P]) RunOnce() bool {
	if !t.clk.Elapsed(t.last, t.period) {
		return false
	}
	t.step(t.phase)
	t.phase = t.phase.Next()
	t.last = t.clk.Now()
	return true
}

// Phase is the phase the next step will perform.
func (t *Periodic[P]) Phase() P { return t.phase }

// Period is the interval between steps in ticks.
func (t *Periodic[P]) Period() uint32 { return t.period }

// SetPeriod takes effect on the next RunOnce; the last-run stamp is kept.
func (t *Periodic[P]) SetPeriod(p uint32) { t.period = p }

// LastRun is the tick at which the task last acted.
func (t *Periodic[P]) LastRun() uint32 { return t.last }

// Steady is the phase set of single-phase tasks.
type Steady struct{}

func (Steady) Next() Steady { return Steady{} }
