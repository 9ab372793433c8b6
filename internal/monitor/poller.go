package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sigreer/rdisk/internal/cache"
	"github.com/sigreer/rdisk/internal/ramdisk"
)

// Lister enumerates devices and describes them
type Lister interface {
	List(ctx context.Context) ([]string, error)
	Info(ctx context.Context, id string) (ramdisk.RawDisk, error)
}

// Poller is a Source that diffs periodic device snapshots. Only mountable
// volumes (those with a volume name) take part, keyed by BSD name.
type Poller struct {
	lister   Lister
	interval time.Duration
	info     *cache.Cache[ramdisk.RawDisk]
	log      zerolog.Logger

	events chan Event
	prev   map[string]ramdisk.RawDisk

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewPoller(lister Lister, interval, infoTTL time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		lister:   lister,
		interval: interval,
		info:     cache.New[ramdisk.RawDisk](infoTTL),
		log:      log.With().Str("component", "poller").Logger(),
		events:   make(chan Event, 64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *Poller) Events() <-chan Event { return p.events }

// Start polls immediately, producing the initial burst, then every interval
func (p *Poller) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("poller already started")
	}
	go p.loop(ctx)
	return nil
}

// Stop ends polling and waits for the event channel to close
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	if p.started.Load() {
		<-p.done
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)
	defer close(p.events)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil {
			p.log.Warn().Err(err).Msg("disk poll incomplete")
		}
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
		}
	}
}

// Poll takes one snapshot and emits the differences from the last one
func (p *Poller) Poll(ctx context.Context) error {
	cur, err := p.snapshot(ctx)
	if cur == nil {
		return err
	}

	var events []Event
	for _, bsd := range sortedKeys(cur) {
		d := cur[bsd]
		old, seen := p.prev[bsd]
		switch {
		case !seen:
			events = append(events, Event{Kind: Appeared, Disk: d})
		case old.VolumeName != d.VolumeName:
			events = append(events, Event{Kind: Renamed, Disk: d})
		}
	}
	for _, bsd := range sortedKeys(p.prev) {
		if _, ok := cur[bsd]; !ok {
			events = append(events, Event{Kind: Disappeared, Disk: p.prev[bsd]})
		}
	}
	p.prev = cur

	for _, e := range events {
		p.log.Debug().Str("event", e.Kind.String()).Str("bsd", e.Disk.BSDName).Str("name", e.Disk.VolumeName).Msg("disk event")
		select {
		case p.events <- e:
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stop:
			return nil
		}
	}
	return err
}

// Scan describes the mountable volumes present right now, ordered by BSD
// name. It emits nothing and does not move the diff baseline.
func (p *Poller) Scan(ctx context.Context) ([]ramdisk.RawDisk, error) {
	cur, err := p.snapshot(ctx)
	if cur == nil {
		return nil, err
	}
	out := make([]ramdisk.RawDisk, 0, len(cur))
	for _, bsd := range sortedKeys(cur) {
		out = append(out, cur[bsd])
	}
	return out, err
}

// snapshot returns nil only when the device list itself could not be read.
// A device whose info fails keeps its previous description.
func (p *Poller) snapshot(ctx context.Context) (map[string]ramdisk.RawDisk, error) {
	ids, err := p.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var result *multierror.Error
	cur := make(map[string]ramdisk.RawDisk)
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
		d, ok := p.info.Get(id)
		if !ok {
			d, err = p.lister.Info(ctx, id)
			if err != nil {
				result = multierror.Append(result, err)
				if old, had := p.prev[id]; had {
					cur[id] = old
				}
				continue
			}
			if d.BSDName == "" {
				d.BSDName = id
			}
			if d.VolumeName != "" {
				p.info.Set(id, d)
			}
		}
		if d.VolumeName != "" {
			cur[id] = d
		}
	}
	p.info.Retain(keep)
	return cur, result.ErrorOrNil()
}

func sortedKeys(m map[string]ramdisk.RawDisk) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
