package ramdisk

const (
	// BytesPerMB is the megabyte used for capacities (decimal, as Finder shows)
	BytesPerMB = 1_000_000

	// BlocksPerMB converts a capacity to the ram:// sector count
	BlocksPerMB = 2048

	// sizeTolerancePercent absorbs block rounding in the OS-reported size
	sizeTolerancePercent = 5
)

// Candidate is a creation request waiting for the OS to surface its volume.
// All four fields form the identity, so two concurrent requests with the
// same name stay distinct as long as their devices differ.
type Candidate struct {
	Name       string
	FileSystem FileSystem
	CapacityMB int
	DevicePath string
}

// Matches reports whether d could be the volume this candidate is waiting for
func (c Candidate) Matches(d RawDisk) bool {
	if c.Name != d.VolumeName || d.MediaSize <= 0 {
		return false
	}
	tolerance := sizeTolerancePercent * d.MediaSize / 100
	diff := int64(c.CapacityMB)*BytesPerMB - d.MediaSize
	if diff < 0 {
		diff = -diff
	}
	return diff < tolerance
}
