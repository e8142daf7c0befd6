package main

import (
	"chat-rooms/domain"
	"time"
)

type Config struct {
	HubURL            string        `env:"HUB_URL,default=ws://localhost:3000/ws"`
	Rooms             string        `env:"CHAT_ROOMS,default=#general,#coding,#art,#movies"`
	TypingDebounce    time.Duration `env:"TYPING_DEBOUNCE,default=2s"`
	ReconnectAttempts int           `env:"RECONNECT_ATTEMPTS,default=5"`
	ReconnectDelay    time.Duration `env:"RECONNECT_DELAY,default=1s"`
	HandshakeTimeout  time.Duration `env:"HANDSHAKE_TIMEOUT,default=10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT,default=90s"`
	BufferSize        int           `env:"BUFFER_SIZE,default=128"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=1s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=30s"`
	LowCapacity       int           `env:"LOW_CAPACITY_THRESHOLD,default=80"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/client"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	LogFile           string        `env:"LOG_FILE,default=chat-client.log"`
}

func (c Config) RoomList() []domain.RoomID {
	return domain.ParseRooms(c.Rooms)
}
