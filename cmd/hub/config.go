package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host             string        `env:"HOST,default=localhost"`
	Port             int           `env:"PORT,default=3000"`
	HistoryLimit     int           `env:"HISTORY_LIMIT,default=20"`
	BufferSize       int           `env:"BUFFER_SIZE,default=256"`
	ClientBufferSize int           `env:"CLIENT_BUFFER_SIZE,default=64"`
	CharReplacement  string        `env:"CHARACTER_REPLACEMENT,default=*"`
	PingPeriod       time.Duration `env:"PING_PERIOD,default=30s"`
	ReadTimeout      time.Duration `env:"READ_TIMEOUT,default=60s"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval   time.Duration `env:"METRIC_INTERVAL,default=30s"`
	LowCapacity      int           `env:"LOW_CAPACITY_THRESHOLD,default=80"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
