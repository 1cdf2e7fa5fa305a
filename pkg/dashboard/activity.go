package dashboard

import (
	"context"
	"sync"

	"github.com/renalview/monitor/pkg/common/kafka"
	"github.com/renalview/monitor/pkg/common/logger"
	"github.com/renalview/monitor/pkg/common/models"
	"github.com/renalview/monitor/pkg/progression"
)

// Feed is the bounded in-memory recent-activity list served to the
// dashboard, newest first. It is a lossy display surface: events beyond the
// capacity fall off the end, and a restart starts empty.
type Feed struct {
	mu      sync.Mutex
	entries []models.Event
	size    int
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 50
	}
	return &Feed{size: size}
}

func (f *Feed) Record(event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append([]models.Event{event}, f.entries...)
	if len(f.entries) > f.size {
		f.entries = f.entries[:f.size]
	}
}

// Recent returns a copy of the feed, newest first.
func (f *Feed) Recent() []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Event, len(f.entries))
	copy(out, f.entries)
	return out
}

// NewEventHandler builds the cohort-bus subscriber: every event lands in the
// feed, and an advance published by another producer additionally refreshes
// the cycle metadata snapshot, since the backend is authoritative on the
// cycle number and this process did not see that advance's round trip.
func NewEventHandler(feed *Feed, controller *progression.Controller, self string) kafka.EventHandler {
	return func(ctx context.Context, event models.Event) error {
		feed.Record(event)

		if event.Type == models.EventCycleAdvanced && event.Source != self && controller != nil {
			if _, err := controller.Refresh(ctx); err != nil {
				logger.Log.WithError(err).Warn("cycle metadata refresh after foreign advance failed")
			}
		}
		return nil
	}
}
