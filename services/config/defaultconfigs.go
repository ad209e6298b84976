package config

// Embedded configuration per board id. Periods are milliseconds.

const cfgF4Disco = `{
  "app": {
    "blink_ms": [100, 200, 500],
    "indicator_ms": 5,
    "heartbeat_ms": 1000,
    "debounce_ms": 100,
    "terminator": "!",
    "queue": 10,
    "read_timeout_ms": 50,
    "max_line": 160,
    "store": "eeprom",
    "store_offset": 0,
    "show": "amplitude"
  },
  "dds": {
    "frequency": 1000,
    "amplitude": 128,
    "waveform": 0,
    "mclk": 25000000
  },
  "serial": {
    "baud": 115200
  },
  "telemetry": {
    "interval": 5
  }
}`

const cfgPico = `{
  "app": {
    "store": "flash",
    "store_offset": 0,
    "show": "mode"
  },
  "dds": {
    "frequency": 1000,
    "amplitude": 128,
    "waveform": 0
  },
  "serial": {
    "baud": 115200,
    "databits": 8,
    "stopbits": 1,
    "parity": "none"
  },
  "telemetry": {
    "interval": 5
  }
}`

const cfgHost = `{
  "app": {
    "store": "eeprom",
    "read_timeout_ms": 100
  },
  "dds": {
    "frequency": 1000,
    "amplitude": 128,
    "waveform": 0
  },
  "telemetry": {
    "interval": 10
  }
}`

var embeddedConfigs = map[string][]byte{
	"f4disco": []byte(cfgF4Disco),
	"pico":    []byte(cfgPico),
	"host":    []byte(cfgHost),
}
