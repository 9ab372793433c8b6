// Package monitor turns OS disk notifications into a single ordered stream
// of appeared, disappeared and renamed events.
package monitor

import (
	"context"
	"fmt"

	"github.com/sigreer/rdisk/internal/ramdisk"
)

// Kind is the type of disk notification
type Kind int

const (
	Appeared Kind = iota + 1
	Disappeared
	Renamed
)

func (k Kind) String() string {
	switch k {
	case Appeared:
		return "appeared"
	case Disappeared:
		return "disappeared"
	case Renamed:
		return "renamed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event carries the description the OS reported with the notification
type Event struct {
	Kind Kind
	Disk ramdisk.RawDisk
}

// Source delivers disk events on one channel, in arrival order. The first
// events after Start describe disks that were already present.
type Source interface {
	// Events is closed once the source has stopped
	Events() <-chan Event
	Start(ctx context.Context) error
	Stop()
}
