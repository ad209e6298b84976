package dds

import "io"

// Applied is told about every executed command. err is the generator's.
type Applied func(cmd string, p Params, err error)

// Executor drains the queue in FIFO order, applying each command to the
// record it was given and acknowledging it.
type Executor struct {
	params *Params
	queue  *Queue
	gen    Generator
	ack    io.Writer
	notify Applied
}

// NewExecutor applies commands from q to params. notify may be nil.
func NewExecutor(params *Params, q *Queue, gen Generator, ack io.Writer, notify Applied) *Executor {
	return &Executor{params: params, queue: q, gen: gen, ack: ack, notify: notify}
}

// RunOnce executes every queued command; it reports whether any ran.
func (e *Executor) RunOnce() bool {
	ran := false
	for {
		cmd, ok := e.queue.Pop()
		if !ok {
			return ran
		}
		e.Execute(cmd)
		ran = true
	}
}

// Execute applies cmd, re-initialises the generator and echoes cmd + CRLF.
// The echo is sent whether or not every field was valid.
func (e *Executor) Execute(cmd string) error {
	ParseCommand(cmd).Apply(e.params)
	err := e.gen.Init(*e.params)
	if e.ack != nil {
		_, _ = io.WriteString(e.ack, cmd+"\r\n")
	}
	if e.notify != nil {
		e.notify(cmd, *e.params, err)
	}
	return err
}
