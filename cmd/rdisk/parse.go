package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sigreer/rdisk/internal/ramdisk"
)

// diskSpec is a disk requested on the command line
type diskSpec struct {
	Name       string
	FileSystem ramdisk.FileSystem
	CapacityMB int
}

// parseCapacity turns "512MB", "2 GB" or a bare "512" (megabytes) into
// whole megabytes of 1,000,000 bytes.
func parseCapacity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	if isDigits(s) {
		s += "MB"
	}
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	mb := int(b / ramdisk.BytesPerMB)
	if mb < 1 {
		return 0, fmt.Errorf("size %q is below 1 MB", s)
	}
	return mb, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseDiskSpec reads NAME:FS:SIZE, e.g. "Scratch:APFS:2GB"
func parseDiskSpec(s string) (diskSpec, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return diskSpec{}, fmt.Errorf("invalid disk %q, expected NAME:FS:SIZE", s)
	}
	rest, size := s[:i], s[i+1:]
	j := strings.LastIndex(rest, ":")
	if j <= 0 {
		return diskSpec{}, fmt.Errorf("invalid disk %q, expected NAME:FS:SIZE", s)
	}
	name, fsName := rest[:j], rest[j+1:]

	fs, err := ramdisk.ParseFileSystem(fsName)
	if err != nil {
		return diskSpec{}, err
	}
	mb, err := parseCapacity(size)
	if err != nil {
		return diskSpec{}, err
	}
	return diskSpec{Name: name, FileSystem: fs, CapacityMB: mb}, nil
}

var wholeDiskRe = regexp.MustCompile(`^(disk\d+)`)

// wholeDisk maps a slice like disk5s1 to its device node /dev/disk5
func wholeDisk(bsd string) string {
	bsd = strings.TrimPrefix(bsd, "/dev/")
	if m := wholeDiskRe.FindStringSubmatch(bsd); m != nil {
		return "/dev/" + m[1]
	}
	return "/dev/" + bsd
}

// matchesQuery reports whether query names d by volume name, BSD name,
// device path or UUID
func matchesQuery(d ramdisk.RawDisk, query string) bool {
	q := strings.TrimPrefix(query, "/dev/")
	switch {
	case d.VolumeName == query:
		return true
	case d.BSDName == q:
		return true
	case wholeDisk(d.BSDName) == "/dev/"+q:
		return true
	case d.MediaUUID != "" && strings.EqualFold(d.MediaUUID, query):
		return true
	}
	return false
}
