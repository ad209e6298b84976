package task

import (
	"f4disco/bus"
	"f4disco/internal/timebase"
)

var topicUptime = bus.T("uptime")

// NewHeartbeat publishes the tick count on "uptime" once per period.
func NewHeartbeat(clk *timebase.Clock, period uint32, conn *bus.Connection) *Periodic[Steady] {
	return NewPeriodic(clk, period, Steady{}, func(Steady) {
		conn.Publish(conn.NewMessage(topicUptime, clk.Now(), true))
	})
}
