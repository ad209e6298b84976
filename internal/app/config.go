package app

import (
	"f4disco/errcode"
	"f4disco/internal/dds"
	"f4disco/internal/serialio"
	"f4disco/internal/task"
	"f4disco/x/strx"
)

// Store kinds.
const (
	StoreNone   = "none"
	StoreEEPROM = "eeprom"
	StoreFlash  = "flash"
)

// Indicator sources.
const (
	ShowAmplitude = "amplitude"
	ShowWaveform  = "waveform"
	ShowMode      = "mode"
)

// Config is the "app" key of the board configuration. Periods are in
// ticks; one tick is one millisecond.
type Config struct {
	BlinkMs       [3]uint32 `json:"blink_ms"`
	IndicatorMs   uint32    `json:"indicator_ms"`
	HeartbeatMs   uint32    `json:"heartbeat_ms"`
	DebounceMs    uint32    `json:"debounce_ms"`
	Terminator    string    `json:"terminator"`
	QueueCap      int       `json:"queue"`
	ReadTimeoutMs uint32    `json:"read_timeout_ms"`
	MaxLine       int       `json:"max_line"`
	Store         string    `json:"store"`
	StoreOffset   int64     `json:"store_offset"`
	Show          string    `json:"show"`
}

// DDSConfig is the "dds" key: boot parameters and oscillator.
type DDSConfig struct {
	dds.Params
	MCLK uint32 `json:"mclk,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		BlinkMs:       [3]uint32(task.DefaultModePeriods),
		IndicatorMs:   5,
		HeartbeatMs:   1000,
		DebounceMs:    100,
		Terminator:    "!",
		QueueCap:      dds.DefaultQueueCap,
		ReadTimeoutMs: 50,
		MaxLine:       serialio.DefaultMaxLine,
		Store:         StoreEEPROM,
		Show:          ShowAmplitude,
	}
}

func DefaultDDSConfig() DDSConfig {
	return DDSConfig{Params: dds.DefaultParams}
}

// Normalize fills zero fields from DefaultConfig and rejects settings the
// dispatcher cannot honour.
func (c *Config) Normalize() error {
	def := DefaultConfig()
	for i, v := range c.BlinkMs {
		if v == 0 {
			c.BlinkMs[i] = def.BlinkMs[i]
		}
	}
	if c.IndicatorMs == 0 {
		c.IndicatorMs = def.IndicatorMs
	}
	if c.HeartbeatMs == 0 {
		c.HeartbeatMs = def.HeartbeatMs
	}
	if c.DebounceMs == 0 {
		c.DebounceMs = def.DebounceMs
	}
	c.Terminator = strx.Coalesce(c.Terminator, def.Terminator)
	if c.QueueCap <= 0 {
		c.QueueCap = def.QueueCap
	}
	if c.ReadTimeoutMs == 0 {
		c.ReadTimeoutMs = def.ReadTimeoutMs
	}
	if c.MaxLine <= 0 {
		c.MaxLine = def.MaxLine
	}
	c.Store = strx.Coalesce(c.Store, def.Store)
	c.Show = strx.Coalesce(c.Show, def.Show)

	// The terminator must survive noise filtering as a non-command byte.
	if len(c.Terminator) != 1 || !dds.IsNoise(c.Terminator[0]) {
		return &errcode.E{C: errcode.InvalidParams, Op: "app.config", Msg: "terminator"}
	}
	switch c.Store {
	case StoreNone, StoreEEPROM, StoreFlash:
	default:
		return &errcode.E{C: errcode.InvalidParams, Op: "app.config", Msg: "store"}
	}
	switch c.Show {
	case ShowAmplitude, ShowWaveform, ShowMode:
	default:
		return &errcode.E{C: errcode.InvalidParams, Op: "app.config", Msg: "show"}
	}
	if c.StoreOffset < 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "app.config", Msg: "store_offset"}
	}
	return nil
}

func (c Config) term() byte { return c.Terminator[0] }
