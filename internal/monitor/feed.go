package monitor

import (
	"context"
	"sync"

	"github.com/sigreer/rdisk/internal/ramdisk"
)

// Feed is a Source driven by its owner, for embedding and tests
type Feed struct {
	mu      sync.Mutex
	events  chan Event
	stopped bool
}

func NewFeed(buffer int) *Feed {
	return &Feed{events: make(chan Event, buffer)}
}

func (f *Feed) Events() <-chan Event { return f.events }

func (f *Feed) Start(context.Context) error { return nil }

// Stop closes the event channel. Publishing afterwards is a no-op.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.events)
	}
}

// Publish queues an event, blocking while the buffer is full
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.events <- e
}

func (f *Feed) Appear(d ramdisk.RawDisk)    { f.Publish(Event{Kind: Appeared, Disk: d}) }
func (f *Feed) Disappear(d ramdisk.RawDisk) { f.Publish(Event{Kind: Disappeared, Disk: d}) }
func (f *Feed) Rename(d ramdisk.RawDisk)    { f.Publish(Event{Kind: Renamed, Disk: d}) }
