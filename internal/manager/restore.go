package manager

import (
	"github.com/sigreer/rdisk/internal/db"
	"github.com/sigreer/rdisk/internal/ramdisk"
)

// scheduleRestore re-arms the restore debounce. Restoration waits for the
// boot-time burst of appeared disks and the loaded records to settle.
func (m *Manager) scheduleRestore() {
	m.restoreTimer.arm(m.post, m.restore)
}

// restore runs both reconciliation phases. A pass that fires while a
// previous pass still has recreations in flight is queued once.
func (m *Manager) restore() {
	if m.recreating > 0 {
		m.followUp = true
		return
	}

	m.matchUnclaimed()
	m.createMissing()
}

// matchUnclaimed pairs each pending record with the first unclaimed disk
// describing it. Records without a match stay pending.
func (m *Manager) matchUnclaimed() {
	var remaining []ramdisk.RestorationRecord
	for _, r := range m.pending {
		ui := -1
		for i, u := range m.unclaimed {
			if r.Matches(u) {
				ui = i
				break
			}
		}
		if ui < 0 {
			remaining = append(remaining, r)
			continue
		}

		raw := m.unclaimed[ui]
		m.removeUnclaimed(ui)

		if m.registry.indexByRaw(raw) >= 0 {
			m.log.Debug().Str("name", r.Name).Str("bsd", raw.BSDName).Msg("restoration record already claimed")
			continue
		}

		disk := ramdisk.NewDisk(r.DevicePath, r.FileSystem, raw)
		m.log.Info().Str("name", disk.Name()).Str("bsd", disk.BSDName()).Str("identifier", disk.Identifier()).Msg("restored existing ram disk")
		m.registry.claim(disk)
		m.record(db.EventRestored, disk.Name(), disk.Identifier(), disk.BSDName(), disk.DevicePath, nil)
	}
	m.pending = remaining
}

// createMissing recreates every record Phase 1 could not match. Failures
// are dropped; the registry is persisted once after the last completion.
func (m *Manager) createMissing() {
	records := m.pending
	m.pending = nil
	if len(records) == 0 {
		return
	}

	m.recreating = len(records)
	for _, r := range records {
		m.log.Info().Str("name", r.Name).Int("capacity_mb", r.CapacityMB()).Str("fs", r.FileSystem.Token()).Msg("recreating ram disk")
		m.record(db.EventRecreating, r.Name, r.Identifier, r.BSDName, r.DevicePath, map[string]interface{}{
			"capacity_mb": r.CapacityMB(),
			"file_system": r.FileSystem.Token(),
		})
		m.create(r.Name, r.FileSystem, r.CapacityMB(), func(_ *ramdisk.Disk, _ error) {
			m.recreating--
			if m.recreating > 0 {
				return
			}
			m.snapshotIfEnabled()
			if m.followUp {
				m.followUp = false
				m.restore()
			}
		})
	}
}
