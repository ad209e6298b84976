// Package telemetry prints a periodic status line built from what the
// dispatcher publishes: uptime, the current parameters, acks and counters.
package telemetry

import (
	"context"
	"time"

	"f4disco/bus"
	"f4disco/internal/app"
	"f4disco/internal/dds"
	"f4disco/services/config"
	"f4disco/x/strconvx"
)

var (
	topicConfig = config.Topic("telemetry")
	topicUptime = bus.T("uptime")
	topicDDS    = bus.T("dds", "#")
)

// DefaultInterval applies until config/telemetry says otherwise.
const DefaultInterval = 5 * time.Second

type snapshot struct {
	uptime uint32
	params dds.Params
	stats  app.Stats
	mode   string
	acks   uint32
	last   string
}

type Service struct {
	// Out receives each status line. Defaults to println.
	Out func(line string)

	snap snapshot
}

func (s *Service) out(line string) {
	if s.Out != nil {
		s.Out(line)
		return
	}
	println(line)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)
	upSub := conn.Subscribe(topicUptime)
	defer conn.Unsubscribe(upSub)
	ddsSub := conn.Subscribe(topicDDS)
	defer conn.Unsubscribe(ddsSub)

	tick := time.NewTicker(DefaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: telemetry service stopping")
			return
		case <-tick.C:
			s.out(s.Line())
		case msg := <-upSub.Channel():
			if v, ok := msg.Payload.(uint32); ok {
				s.snap.uptime = v
			}
		case msg := <-ddsSub.Channel():
			s.observe(msg)
		case msg := <-cfgSub.Channel():
			var c struct {
				Interval float64 `json:"interval"`
			}
			if err := config.Decode(msg.Payload, &c); err == nil && c.Interval > 0 {
				tick.Reset(time.Duration(c.Interval * float64(time.Second)))
				println("Info: telemetry interval set to", c.Interval, "seconds")
			}
		}
	}
}

func (s *Service) observe(msg *bus.Message) {
	if len(msg.Topic) < 2 {
		return
	}
	switch msg.Topic[1] {
	case "params":
		if p, ok := msg.Payload.(dds.Params); ok {
			s.snap.params = p
		}
	case "stats":
		if st, ok := msg.Payload.(app.Stats); ok {
			s.snap.stats = st
		}
	case "mode":
		if m, ok := msg.Payload.(string); ok {
			s.snap.mode = m
		}
	case "ack":
		if c, ok := msg.Payload.(string); ok {
			s.snap.acks++
			s.snap.last = c
		}
	}
}

// Line formats the current snapshot.
func (s *Service) Line() string {
	n := s.snap
	line := "Info: up " + strconvx.FormatUint(uint64(n.uptime), 10) + "ms" +
		" dds " + dds.Format(n.params) + " " + n.params.Waveform.String() +
		" acks " + strconvx.FormatUint(uint64(n.acks), 10) +
		" drops " + strconvx.FormatUint(uint64(n.stats.QueueDrops), 10) +
		" errors " + strconvx.FormatUint(uint64(n.stats.Errors), 10)
	if n.mode != "" {
		line += " blink " + n.mode
	}
	if n.last != "" {
		line += " last " + n.last
	}
	return line
}

// Start runs the service until ctx ends.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
