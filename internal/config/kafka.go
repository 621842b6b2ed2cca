package config

import "time"

type Kafka struct {
	Addresses      []string      `env:"KAFKA_ADDRESSES,required" envSeparator:","`
	Group          string        `env:"KAFKA_GROUP" envDefault:"product-inventory"`
	ProducerLinger time.Duration `env:"KAFKA_PRODUCER_LINGER" envDefault:"5ms"`
}
