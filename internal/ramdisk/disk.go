package ramdisk

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Disk is a mounted RAM disk under management. Identifier is stable across
// renames; the raw description behind it may be replaced.
type Disk struct {
	DevicePath string     `json:"device_path"`
	FileSystem FileSystem `json:"file_system"`
	Raw        RawDisk    `json:"raw"`
}

// NewDisk builds a managed disk from its allocated device and OS description
func NewDisk(devicePath string, fs FileSystem, raw RawDisk) Disk {
	return Disk{DevicePath: devicePath, FileSystem: fs, Raw: raw}
}

// Name is the current volume name
func (d Disk) Name() string { return d.Raw.VolumeName }

// Identifier is the media UUID given by the OS
func (d Disk) Identifier() string { return d.Raw.MediaUUID }

// CapacityBytes is the OS-reported media size
func (d Disk) CapacityBytes() int64 { return d.Raw.MediaSize }

// BSDName is the device node name, e.g. disk5s1
func (d Disk) BSDName() string { return d.Raw.BSDName }

// Record snapshots the fields needed to recognise or recreate d next launch
func (d Disk) Record() RestorationRecord {
	return RestorationRecord{
		Name:          d.Name(),
		Identifier:    d.Identifier(),
		CapacityBytes: d.CapacityBytes(),
		FileSystem:    d.FileSystem,
		BSDName:       d.BSDName(),
		DevicePath:    d.DevicePath,
	}
}

func (d Disk) String() string {
	return fmt.Sprintf("RAMDisk: name '%s', bsd '%s', identifier '%s', device '%s', capacity %s, file system %s",
		d.Name(), d.BSDName(), d.Identifier(), d.DevicePath, humanize.Bytes(uint64(d.CapacityBytes())), d.FileSystem.Description())
}

// RestorationRecord is the persisted description of a disk that existed
// when the previous session ended.
type RestorationRecord struct {
	Name          string     `json:"name" yaml:"name"`
	Identifier    string     `json:"identifier" yaml:"identifier"`
	CapacityBytes int64      `json:"capacity_bytes" yaml:"capacity_bytes"`
	FileSystem    FileSystem `json:"file_system" yaml:"file_system"`
	BSDName       string     `json:"bsd_name" yaml:"bsd_name"`
	DevicePath    string     `json:"device_path" yaml:"device_path"`
}

// CapacityMB converts the stored byte capacity back to a creation size
func (r RestorationRecord) CapacityMB() int {
	return int(r.CapacityBytes / BytesPerMB)
}

// Matches reports whether d is the volume r describes. The file system is
// left out because the OS does not report it in the persisted form.
func (r RestorationRecord) Matches(d RawDisk) bool {
	return r.Name == d.VolumeName &&
		r.Identifier == d.MediaUUID &&
		r.CapacityBytes == d.MediaSize &&
		r.BSDName == d.BSDName
}

func (r RestorationRecord) String() string {
	return fmt.Sprintf("RestorationRecord: name '%s', identifier '%s', capacity %d, file system '%s', bsd '%s', device '%s'",
		r.Name, r.Identifier, r.CapacityBytes, r.FileSystem, r.BSDName, r.DevicePath)
}
