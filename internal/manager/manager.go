// Package manager owns every mounted RAM disk. It pairs creation requests
// with the volumes the OS reports, keeps the mounted-disk registry, and
// restores the previous session's disks at startup.
//
// All state lives on one loop goroutine. Tool invocations run on their
// own goroutines and hand their results back through that loop, so
// completions and change callbacks are always delivered on it.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sigreer/rdisk/internal/db"
	"github.com/sigreer/rdisk/internal/diskutil"
	"github.com/sigreer/rdisk/internal/monitor"
	"github.com/sigreer/rdisk/internal/ramdisk"
)

// DefaultDebounce is how long the disk and record sets must stay quiet
// before restoration runs.
const DefaultDebounce = 3 * time.Second

// ErrClosed is returned by blocking calls once the manager has shut down
var ErrClosed = errors.New("manager closed")

// Commands runs the external allocate, format and eject tools
type Commands interface {
	Allocate(ctx context.Context, sizeMB int) diskutil.Response
	Format(ctx context.Context, devicePath, name string, fs ramdisk.FileSystem) diskutil.Response
	Eject(ctx context.Context, devicePath string) diskutil.Response
}

// Store persists restoration records between sessions
type Store interface {
	SaveRecords(records []ramdisk.RestorationRecord) error
	LoadRecords() ([]ramdisk.RestorationRecord, error)
	ClearRecords() error
}

// Settings keeps the persist toggle across restarts
type Settings interface {
	GetBool(key string) (value bool, found bool, err error)
	SetBool(key string, value bool) error
}

// Recorder receives lifecycle history
type Recorder interface {
	RecordEvent(e *db.Event, details map[string]interface{}) error
}

type Options struct {
	Commands Commands
	Source   monitor.Source

	// Optional. Without a Store nothing is saved or restored.
	Store    Store
	Settings Settings
	Recorder Recorder

	// Classifier decides which appeared disks are RAM disks.
	// Nil means ramdisk.DefaultClassifier.
	Classifier *ramdisk.Classifier

	Debounce time.Duration

	// PersistDefault seeds the persist toggle when Settings has no value
	PersistDefault bool

	Logger zerolog.Logger
}

type Manager struct {
	cmds       Commands
	source     monitor.Source
	store      Store
	settings   Settings
	recorder   Recorder
	classifier ramdisk.Classifier
	persistDef bool
	log        zerolog.Logger

	persist atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	qmu    sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed sync.Once

	started atomic.Bool

	// loop-owned
	registry     *registry
	tracker      *candidates
	unclaimed    []ramdisk.RawDisk
	pending      []ramdisk.RestorationRecord
	restoreTimer debouncer
	recreating   int
	followUp     bool
}

func New(opts Options) (*Manager, error) {
	if opts.Commands == nil {
		return nil, errors.New("manager: commands are required")
	}
	if opts.Source == nil {
		return nil, errors.New("manager: disk event source is required")
	}

	classifier := ramdisk.DefaultClassifier
	if opts.Classifier != nil {
		classifier = *opts.Classifier
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cmds:         opts.Commands,
		source:       opts.Source,
		store:        opts.Store,
		settings:     opts.Settings,
		recorder:     opts.Recorder,
		classifier:   classifier,
		persistDef:   opts.PersistDefault,
		log:          opts.Logger.With().Str("component", "manager").Logger(),
		ctx:          ctx,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		registry:     newRegistry(),
		tracker:      newCandidates(),
		restoreTimer: debouncer{delay: debounce},
	}
	m.persist.Store(opts.PersistDefault)
	m.registry.onChange = m.snapshotIfEnabled
	return m, nil
}

// Start loads the persist toggle and, when it is on, the previous
// session's records; then starts the event source and the loop. The
// manager stops when ctx is cancelled or Close is called.
func (m *Manager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("manager already started")
	}
	context.AfterFunc(ctx, m.cancel)

	persist := m.persistDef
	if m.settings != nil {
		v, found, err := m.settings.GetBool(db.SettingPersistSetup)
		if err != nil {
			close(m.done)
			return fmt.Errorf("failed to load persist setting: %w", err)
		}
		if found {
			persist = v
		} else if err := m.settings.SetBool(db.SettingPersistSetup, persist); err != nil {
			m.log.Warn().Err(err).Msg("could not seed persist setting")
		}
	}
	m.persist.Store(persist)

	var records []ramdisk.RestorationRecord
	if persist && m.store != nil {
		var err error
		records, err = m.store.LoadRecords()
		if err != nil {
			close(m.done)
			return fmt.Errorf("failed to load restoration records: %w", err)
		}
		m.log.Info().Int("records", len(records)).Msg("loaded restoration records")
	}

	if err := m.source.Start(m.ctx); err != nil {
		close(m.done)
		return fmt.Errorf("failed to start disk event source: %w", err)
	}

	if len(records) > 0 {
		m.post(func() {
			m.pending = append(m.pending, records...)
			m.scheduleRestore()
		})
	}

	go m.loop(m.source.Events())
	return nil
}

// Close stops the loop and the event source. Pending completions are
// never called.
func (m *Manager) Close() error {
	m.closed.Do(func() {
		m.cancel()
		if m.started.Load() {
			m.source.Stop()
			<-m.done
		}
	})
	return nil
}

// Done is closed once the loop has exited
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// post queues fn onto the loop. It never blocks, so it is safe from
// completions and subscriber callbacks.
func (m *Manager) post(fn func()) {
	m.qmu.Lock()
	m.queue = append(m.queue, fn)
	m.qmu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) loop(events <-chan monitor.Event) {
	defer close(m.done)
	defer m.restoreTimer.stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.wake:
			m.drain()
		case ev, ok := <-events:
			if !ok {
				m.log.Debug().Msg("disk event source closed")
				events = nil
				continue
			}
			m.handleEvent(ev)
		}
	}
}

func (m *Manager) drain() {
	for {
		m.qmu.Lock()
		batch := m.queue
		m.queue = nil
		m.qmu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			if m.ctx.Err() != nil {
				return
			}
			fn()
		}
	}
}

func (m *Manager) handleEvent(ev monitor.Event) {
	switch ev.Kind {
	case monitor.Appeared:
		m.appeared(ev.Disk)
	case monitor.Disappeared:
		m.disappeared(ev.Disk)
	case monitor.Renamed:
		m.renamed(ev.Disk)
	default:
		m.log.Warn().Stringer("kind", ev.Kind).Msg("unknown disk event")
	}
}

func (m *Manager) appeared(raw ramdisk.RawDisk) {
	if !m.classifier.IsManaged(raw) {
		m.log.Debug().Str("bsd", raw.BSDName).Str("model", raw.DeviceModel).Msg("ignoring disk that is not a ram disk")
		return
	}
	if m.tryMatch(raw) {
		return
	}
	// A registered disk reported again keeps its entry. A new device node
	// for the same identifier refreshes the stale description in place.
	if i := m.registry.indexByIdentifier(raw.MediaUUID); i >= 0 {
		if !m.registry.disks[i].Raw.Same(raw) {
			old := m.registry.disks[i].BSDName()
			disk := m.registry.replaceRaw(i, raw)
			m.log.Info().Str("name", disk.Name()).Str("from", old).Str("bsd", disk.BSDName()).Msg("ram disk reappeared")
		}
		if j := m.unclaimedIndexByIdentifier(raw.MediaUUID); j >= 0 {
			m.removeUnclaimed(j)
		}
		return
	}

	if i := m.unclaimedIndex(raw); i >= 0 {
		m.unclaimed[i] = raw
	} else {
		m.unclaimed = append(m.unclaimed, raw)
	}
	m.log.Info().Str("name", raw.VolumeName).Str("bsd", raw.BSDName).Str("identifier", raw.MediaUUID).Msg("unclaimed ram disk")
	m.record(db.EventUnclaimed, raw.VolumeName, raw.MediaUUID, raw.BSDName, "", map[string]interface{}{
		"media_size": raw.MediaSize,
	})
	if m.persist.Load() {
		m.scheduleRestore()
	}
}

// tryMatch resolves every candidate raw could satisfy against raw
func (m *Manager) tryMatch(raw ramdisk.RawDisk) bool {
	matches := m.tracker.matching(raw)
	if len(matches) == 0 {
		return false
	}
	if i := m.unclaimedIndex(raw); i >= 0 {
		m.removeUnclaimed(i)
	}
	if i := m.unclaimedIndexByIdentifier(raw.MediaUUID); i >= 0 {
		m.removeUnclaimed(i)
	}

	for _, c := range matches {
		completion, _ := m.tracker.take(c)
		disk := ramdisk.NewDisk(c.DevicePath, c.FileSystem, raw)
		m.log.Info().Str("name", disk.Name()).Str("bsd", disk.BSDName()).Str("device", disk.DevicePath).Str("identifier", disk.Identifier()).Msg("ram disk mounted")
		m.registry.claim(disk)
		m.record(db.EventCreated, disk.Name(), disk.Identifier(), disk.BSDName(), disk.DevicePath, map[string]interface{}{
			"capacity_bytes": disk.CapacityBytes(),
			"file_system":    disk.FileSystem.Token(),
		})
		if completion != nil {
			completion(&disk, nil)
		}
	}
	return true
}

func (m *Manager) disappeared(raw ramdisk.RawDisk) {
	if i := m.registry.indexByRaw(raw); i >= 0 {
		disk := m.registry.removeAt(i)
		m.log.Info().Str("name", disk.Name()).Str("bsd", disk.BSDName()).Msg("ram disk removed")
		m.record(db.EventRemoved, disk.Name(), disk.Identifier(), disk.BSDName(), disk.DevicePath, nil)
		return
	}
	if i := m.unclaimedIndex(raw); i >= 0 {
		m.removeUnclaimed(i)
		if m.persist.Load() {
			m.scheduleRestore()
		}
	}
}

func (m *Manager) renamed(raw ramdisk.RawDisk) {
	i := m.registry.indexByRaw(raw)
	if i < 0 {
		return
	}
	old := m.registry.disks[i].Name()
	disk := m.registry.replaceRaw(i, raw)
	m.log.Info().Str("from", old).Str("name", disk.Name()).Str("bsd", disk.BSDName()).Msg("ram disk renamed")
	m.record(db.EventRenamed, disk.Name(), disk.Identifier(), disk.BSDName(), disk.DevicePath, map[string]interface{}{
		"previous_name": old,
	})
}

func (m *Manager) unclaimedIndex(raw ramdisk.RawDisk) int {
	for i, u := range m.unclaimed {
		if u.Same(raw) {
			return i
		}
	}
	return -1
}

func (m *Manager) unclaimedIndexByIdentifier(id string) int {
	if id == "" {
		return -1
	}
	for i, u := range m.unclaimed {
		if u.MediaUUID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) removeUnclaimed(i int) {
	m.unclaimed = append(m.unclaimed[:i], m.unclaimed[i+1:]...)
}

// CreateRamDisk allocates, formats and waits for the OS to mount a new
// disk. completion runs exactly once, on the manager loop, unless the
// volume never appears.
func (m *Manager) CreateRamDisk(name string, fs ramdisk.FileSystem, capacityMB int, completion CreateCompletion) {
	m.create(name, fs, capacityMB, completion)
}

func (m *Manager) create(name string, fs ramdisk.FileSystem, capacityMB int, completion CreateCompletion) {
	go func() {
		resp := m.cmds.Allocate(m.ctx, capacityMB)
		if !resp.OK() || resp.Output == "" {
			err := ramdisk.AllocationError(resp.Error)
			m.post(func() {
				m.log.Warn().Err(err).Str("name", name).Int("capacity_mb", capacityMB).Msg("allocation failed")
				m.record(db.EventFailed, name, "", "", "", map[string]interface{}{"error": err.Error()})
				if completion != nil {
					completion(nil, err)
				}
			})
			return
		}

		c := ramdisk.Candidate{Name: name, FileSystem: fs, CapacityMB: capacityMB, DevicePath: resp.Output}
		m.post(func() {
			m.log.Debug().Str("name", name).Str("device", c.DevicePath).Msg("waiting for volume")
			m.tracker.register(c, completion)
			go m.format(c)
		})
	}()
}

func (m *Manager) format(c ramdisk.Candidate) {
	resp := m.cmds.Format(m.ctx, c.DevicePath, c.Name, c.FileSystem)
	if resp.OK() {
		return
	}
	err := ramdisk.FormattingError(resp.Error)
	m.post(func() {
		if !m.tracker.fail(c, err) {
			m.log.Warn().Err(err).Str("device", c.DevicePath).Msg("formatting reported failure after the volume appeared")
			return
		}
		m.log.Warn().Err(err).Str("name", c.Name).Str("device", c.DevicePath).Msg("formatting failed, releasing device")
		m.record(db.EventFailed, c.Name, "", "", c.DevicePath, map[string]interface{}{"error": err.Error()})
		go m.release(c.DevicePath)
	})
}

// release ejects a device whose volume will never be claimed
func (m *Manager) release(devicePath string) {
	resp := m.cmds.Eject(m.ctx, devicePath)
	if !resp.OK() {
		m.log.Error().Str("device", devicePath).Str("detail", resp.Error).Msg("could not release device")
	}
}

// Create is CreateRamDisk for callers that can block. It must not be
// called from a completion or subscriber callback.
func (m *Manager) Create(ctx context.Context, name string, fs ramdisk.FileSystem, capacityMB int) (ramdisk.Disk, error) {
	type result struct {
		disk *ramdisk.Disk
		err  error
	}
	ch := make(chan result, 1)
	m.CreateRamDisk(name, fs, capacityMB, func(disk *ramdisk.Disk, err error) {
		ch <- result{disk, err}
	})

	select {
	case r := <-ch:
		if r.err != nil {
			return ramdisk.Disk{}, r.err
		}
		return *r.disk, nil
	case <-ctx.Done():
		return ramdisk.Disk{}, ctx.Err()
	case <-m.ctx.Done():
		return ramdisk.Disk{}, ErrClosed
	}
}

// EjectRamDisk asks the OS to detach disk. The registry only changes once
// the OS reports the disk gone.
func (m *Manager) EjectRamDisk(disk ramdisk.Disk, completion EjectCompletion) {
	go func() {
		var err error
		resp := m.cmds.Eject(m.ctx, disk.DevicePath)
		if !resp.OK() {
			err = ramdisk.EjectingError(resp.Error)
		}
		m.post(func() {
			if err != nil {
				m.log.Warn().Err(err).Str("name", disk.Name()).Str("device", disk.DevicePath).Msg("eject failed")
				m.record(db.EventFailed, disk.Name(), disk.Identifier(), disk.BSDName(), disk.DevicePath, map[string]interface{}{"error": err.Error()})
			} else {
				m.record(db.EventEjected, disk.Name(), disk.Identifier(), disk.BSDName(), disk.DevicePath, nil)
			}
			if completion != nil {
				completion(err)
			}
		})
	}()
}

// Eject is EjectRamDisk for callers that can block
func (m *Manager) Eject(ctx context.Context, disk ramdisk.Disk) error {
	ch := make(chan error, 1)
	m.EjectRamDisk(disk, func(err error) { ch <- err })

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return ErrClosed
	}
}

// Disks returns the mounted disks in the order they were claimed
func (m *Manager) Disks() []ramdisk.Disk {
	return m.registry.Snapshot()
}

// Subscribe registers fn for registry changes. fn runs on the loop after
// every mutation and should re-read Disks. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func()) (cancel func()) {
	return m.registry.subscribe(fn)
}

// Unclaimed returns the RAM disks no request or record has claimed yet
func (m *Manager) Unclaimed(ctx context.Context) ([]ramdisk.RawDisk, error) {
	ch := make(chan []ramdisk.RawDisk, 1)
	m.post(func() {
		out := make([]ramdisk.RawDisk, len(m.unclaimed))
		copy(out, m.unclaimed)
		ch <- out
	})

	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.ctx.Done():
		return nil, ErrClosed
	}
}

func (m *Manager) PersistSetup() bool {
	return m.persist.Load()
}

// SetPersistSetup switches persistence. Enabling saves the current
// registry right away; disabling clears what was saved.
func (m *Manager) SetPersistSetup(enabled bool) {
	m.persist.Store(enabled)
	m.post(func() {
		if m.settings != nil {
			if err := m.settings.SetBool(db.SettingPersistSetup, enabled); err != nil {
				m.log.Error().Err(err).Msg("could not store persist setting")
			}
		}
		if m.store == nil {
			return
		}
		if enabled {
			m.snapshot()
			return
		}
		if err := m.store.ClearRecords(); err != nil {
			m.log.Error().Err(err).Msg("could not clear restoration records")
		}
	})
}

func (m *Manager) snapshotIfEnabled() {
	if m.persist.Load() {
		m.snapshot()
	}
}

func (m *Manager) snapshot() {
	if m.store == nil {
		return
	}
	records := m.registry.records()
	if err := m.store.SaveRecords(records); err != nil {
		m.log.Error().Err(err).Msg("could not save restoration records")
		return
	}
	m.log.Debug().Int("records", len(records)).Msg("saved restoration records")
}

func (m *Manager) record(eventType, name, identifier, bsd, device string, details map[string]interface{}) {
	if m.recorder == nil {
		return
	}
	e := &db.Event{
		EventType:  eventType,
		Name:       name,
		Identifier: identifier,
		BSDName:    bsd,
		DevicePath: device,
	}
	if err := m.recorder.RecordEvent(e, details); err != nil {
		m.log.Warn().Err(err).Str("event", eventType).Msg("could not record event")
	}
}
