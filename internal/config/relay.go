package config

import "time"

// Relay configures the outbox relay that publishes product and stock events.
type Relay struct {
	BatchSize int           `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	Interval  time.Duration `env:"RELAY_INTERVAL" envDefault:"1s"`
}
