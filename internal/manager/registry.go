package manager

import (
	"sync"

	"github.com/sigreer/rdisk/internal/ramdisk"
)

// registry is the ordered set of mounted disks. Mutations happen on the
// manager loop only; readers on any goroutine get a copy of the last
// published sequence. Each mutation fires exactly one change.
type registry struct {
	disks []ramdisk.Disk

	mu        sync.RWMutex
	published []ramdisk.Disk

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	// onChange runs after subscribers, used for persistence snapshots
	onChange func()
}

type subscriber struct {
	id int
	fn func()
}

func newRegistry() *registry {
	return &registry{}
}

// Snapshot returns the mounted disks in insertion order
func (r *registry) Snapshot() []ramdisk.Disk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ramdisk.Disk, len(r.published))
	copy(out, r.published)
	return out
}

func (r *registry) len() int {
	return len(r.disks)
}

func (r *registry) indexByIdentifier(id string) int {
	if id == "" {
		return -1
	}
	for i, d := range r.disks {
		if d.Identifier() == id {
			return i
		}
	}
	return -1
}

func (r *registry) indexByRaw(raw ramdisk.RawDisk) int {
	for i, d := range r.disks {
		if d.Raw.Same(raw) {
			return i
		}
	}
	return -1
}

// claim inserts d, replacing a stale entry with the same identifier
func (r *registry) claim(d ramdisk.Disk) {
	if i := r.indexByIdentifier(d.Identifier()); i >= 0 {
		r.disks = append(r.disks[:i], r.disks[i+1:]...)
	}
	r.disks = append(r.disks, d)
	r.changed()
}

func (r *registry) removeAt(i int) ramdisk.Disk {
	d := r.disks[i]
	r.disks = append(r.disks[:i], r.disks[i+1:]...)
	r.changed()
	return d
}

// replaceRaw swaps the description of entry i, keeping its identity
func (r *registry) replaceRaw(i int, raw ramdisk.RawDisk) ramdisk.Disk {
	r.disks[i].Raw = raw
	r.changed()
	return r.disks[i]
}

func (r *registry) records() []ramdisk.RestorationRecord {
	out := make([]ramdisk.RestorationRecord, len(r.disks))
	for i, d := range r.disks {
		out[i] = d.Record()
	}
	return out
}

// subscribe is safe from any goroutine; fn always runs on the loop
func (r *registry) subscribe(fn func()) func() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs = append(r.subs, subscriber{id: id, fn: fn})
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

func (r *registry) changed() {
	pub := make([]ramdisk.Disk, len(r.disks))
	copy(pub, r.disks)
	r.mu.Lock()
	r.published = pub
	r.mu.Unlock()

	r.subMu.Lock()
	subs := r.subs
	r.subMu.Unlock()
	for _, s := range subs {
		s.fn()
	}
	if r.onChange != nil {
		r.onChange()
	}
}
