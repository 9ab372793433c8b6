package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sigreer/rdisk/internal/ramdisk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu      sync.Mutex
	disks   map[string]ramdisk.RawDisk
	order   []string
	listErr error
	infoErr map[string]error
	infos   int
}

func (f *fakeLister) set(ids []string, disks map[string]ramdisk.RawDisk) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = ids
	f.disks = disks
}

func (f *fakeLister) List(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.order...), nil
}

func (f *fakeLister) Info(_ context.Context, id string) (ramdisk.RawDisk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos++
	if err := f.infoErr[id]; err != nil {
		return ramdisk.RawDisk{}, err
	}
	return f.disks[id], nil
}

func vol(bsd, name string) ramdisk.RawDisk {
	return ramdisk.RawDisk{BSDName: bsd, VolumeName: name, MediaSize: 100_000_000}
}

func drain(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestPollerDiffs(t *testing.T) {
	l := &fakeLister{}
	l.set([]string{"disk5", "disk5s1", "disk6s1"}, map[string]ramdisk.RawDisk{
		"disk5":   {BSDName: "disk5"},
		"disk5s1": vol("disk5s1", "Scratch"),
		"disk6s1": vol("disk6s1", "Build"),
	})
	// zero TTL disables the info cache so renames show on the next poll
	p := NewPoller(l, time.Hour, 0, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, p.Poll(ctx))
	events := drain(t, p.Events())
	require.Len(t, events, 2, "unnamed whole disk is not mountable")
	assert.Equal(t, Appeared, events[0].Kind)
	assert.Equal(t, "disk5s1", events[0].Disk.BSDName)
	assert.Equal(t, "disk6s1", events[1].Disk.BSDName)

	l.set([]string{"disk5", "disk5s1"}, map[string]ramdisk.RawDisk{
		"disk5":   {BSDName: "disk5"},
		"disk5s1": vol("disk5s1", "Renamed"),
	})
	require.NoError(t, p.Poll(ctx))
	events = drain(t, p.Events())
	require.Len(t, events, 2)
	assert.Equal(t, Renamed, events[0].Kind)
	assert.Equal(t, "Renamed", events[0].Disk.VolumeName)
	assert.Equal(t, Disappeared, events[1].Kind)
	assert.Equal(t, "Build", events[1].Disk.VolumeName)

	require.NoError(t, p.Poll(ctx))
	assert.Empty(t, drain(t, p.Events()))
}

func TestPollerScan(t *testing.T) {
	l := &fakeLister{}
	l.set([]string{"disk6s1", "disk5", "disk5s1"}, map[string]ramdisk.RawDisk{
		"disk5":   {BSDName: "disk5"},
		"disk5s1": vol("disk5s1", "Scratch"),
		"disk6s1": vol("disk6s1", "Build"),
	})
	p := NewPoller(l, time.Hour, time.Minute, zerolog.Nop())

	disks, err := p.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, disks, 2)
	assert.Equal(t, "disk5s1", disks[0].BSDName)
	assert.Equal(t, "disk6s1", disks[1].BSDName)
	assert.Empty(t, drain(t, p.Events()))

	// the baseline is untouched, so the first poll still reports both
	require.NoError(t, p.Poll(context.Background()))
	assert.Len(t, drain(t, p.Events()), 2)
}

func TestPollerListFailureKeepsState(t *testing.T) {
	l := &fakeLister{}
	l.set([]string{"disk5s1"}, map[string]ramdisk.RawDisk{"disk5s1": vol("disk5s1", "Scratch")})
	p := NewPoller(l, time.Hour, time.Minute, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, p.Poll(ctx))
	drain(t, p.Events())

	l.listErr = errors.New("diskutil busy")
	assert.Error(t, p.Poll(ctx))
	assert.Empty(t, drain(t, p.Events()), "a failed listing must not look like every disk vanished")
}

func TestPollerInfoFailureCarriesPrevious(t *testing.T) {
	l := &fakeLister{infoErr: map[string]error{}}
	l.set([]string{"disk5s1"}, map[string]ramdisk.RawDisk{"disk5s1": vol("disk5s1", "Scratch")})
	p := NewPoller(l, time.Hour, 0, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, p.Poll(ctx))
	drain(t, p.Events())

	l.infoErr["disk5s1"] = errors.New("timed out")
	assert.Error(t, p.Poll(ctx))
	assert.Empty(t, drain(t, p.Events()))
}

func TestPollerCachesInfo(t *testing.T) {
	l := &fakeLister{}
	l.set([]string{"disk5s1"}, map[string]ramdisk.RawDisk{"disk5s1": vol("disk5s1", "Scratch")})
	p := NewPoller(l, time.Hour, time.Minute, zerolog.Nop())

	require.NoError(t, p.Poll(context.Background()))
	require.NoError(t, p.Poll(context.Background()))
	assert.Equal(t, 1, l.infos)
}

func TestPollerStartStop(t *testing.T) {
	l := &fakeLister{}
	l.set([]string{"disk5s1"}, map[string]ramdisk.RawDisk{"disk5s1": vol("disk5s1", "Scratch")})
	p := NewPoller(l, 10*time.Millisecond, time.Minute, zerolog.Nop())

	require.NoError(t, p.Start(context.Background()))
	e := <-p.Events()
	assert.Equal(t, Appeared, e.Kind)

	p.Stop()
	_, open := <-p.Events()
	assert.False(t, open)
}

func TestFeed(t *testing.T) {
	f := NewFeed(4)
	f.Appear(vol("disk5s1", "Scratch"))
	f.Rename(vol("disk5s1", "Other"))
	f.Disappear(vol("disk5s1", "Other"))
	f.Stop()
	f.Appear(vol("disk6s1", "Late"))

	var kinds []Kind
	for e := range f.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []Kind{Appeared, Renamed, Disappeared}, kinds)
	assert.Equal(t, "renamed", Renamed.String())
}
