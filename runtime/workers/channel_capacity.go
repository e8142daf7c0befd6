package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

const DefaultLowCapacityPercent = 80

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the fill level of buffered
// channels. Reading len and cap never blocks the goroutines using them.
// A channel filled above the threshold is reported at warn level.
type ChannelCapacityWorker struct {
	log              *slog.Logger
	channels         []NamedChannel
	interval         time.Duration
	thresholdPercent int
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	interval time.Duration, thresholdPercent int) *ChannelCapacityWorker {
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = DefaultLowCapacityPercent
	}
	return &ChannelCapacityWorker{
		log:              log,
		channels:         channels,
		interval:         interval,
		thresholdPercent: thresholdPercent,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample reports every channel once and returns the names of those above
// the threshold.
func (w ChannelCapacityWorker) Sample() []string {
	var saturated []string
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		if capacity == 0 {
			continue
		}
		if length*100 >= capacity*w.thresholdPercent {
			saturated = append(saturated, nc.Name)
			w.log.Warn("Channel almost full", "name", nc.Name, "length", length, "capacity", capacity)
			continue
		}
		w.log.Debug("Channel capacity", "name", nc.Name, "length", length, "capacity", capacity)
	}
	return saturated
}
