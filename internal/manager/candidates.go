package manager

import "github.com/sigreer/rdisk/internal/ramdisk"

// CreateCompletion receives the mounted disk or the reason creation failed
type CreateCompletion func(disk *ramdisk.Disk, err error)

// EjectCompletion receives nil once the eject tool reported success
type EjectCompletion func(err error)

// candidates holds creation requests waiting for their volume to appear,
// in registration order. Identity is the full Candidate value.
type candidates struct {
	pending map[ramdisk.Candidate]CreateCompletion
	order   []ramdisk.Candidate
}

func newCandidates() *candidates {
	return &candidates{pending: make(map[ramdisk.Candidate]CreateCompletion)}
}

// register stores completion under c; a second registration of the same
// identity replaces the first, whose completion is then never called.
func (t *candidates) register(c ramdisk.Candidate, completion CreateCompletion) {
	if _, ok := t.pending[c]; !ok {
		t.order = append(t.order, c)
	}
	t.pending[c] = completion
}

// matching lists every pending candidate d could satisfy
func (t *candidates) matching(d ramdisk.RawDisk) []ramdisk.Candidate {
	var out []ramdisk.Candidate
	for _, c := range t.order {
		if c.Matches(d) {
			out = append(out, c)
		}
	}
	return out
}

// take removes c and hands back its completion
func (t *candidates) take(c ramdisk.Candidate) (CreateCompletion, bool) {
	completion, ok := t.pending[c]
	if !ok {
		return nil, false
	}
	delete(t.pending, c)
	for i, o := range t.order {
		if o == c {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return completion, true
}

// fail resolves c with err. It reports false if c was already resolved.
func (t *candidates) fail(c ramdisk.Candidate, err error) bool {
	completion, ok := t.take(c)
	if !ok {
		return false
	}
	if completion != nil {
		completion(nil, err)
	}
	return true
}

func (t *candidates) len() int {
	return len(t.pending)
}
