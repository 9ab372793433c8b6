package manager

import "time"

// debouncer is a replaceable single-shot timer. Every arm cancels the
// previous one; only the latest arm can fire. It is driven from the
// manager loop, and firing is posted back onto that loop.
type debouncer struct {
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

func (d *debouncer) arm(post func(func()), fire func()) {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		post(func() {
			if gen != d.gen {
				return
			}
			d.timer = nil
			fire()
		})
	})
}

func (d *debouncer) armed() bool {
	return d.timer != nil
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
