package ramdisk

import (
	"fmt"
	"strings"
)

// FileSystem is a diskutil personality a RAM disk can be formatted with.
// The value is the token passed to `diskutil erasedisk` and the form that
// gets persisted, so reordering the constants never changes stored data.
type FileSystem string

// All personalities macOS offers for RAM disks (`diskutil listFilesystems`)
const (
	CaseSensitiveAPFS             FileSystem = "Case-sensitive APFS"
	APFS                          FileSystem = "APFS"
	ExFAT                         FileSystem = "ExFAT"
	FreeSpace                     FileSystem = "Free Space"
	MSDOS                         FileSystem = "MS-DOS"
	FAT12                         FileSystem = "MS-DOS FAT12"
	FAT16                         FileSystem = "MS-DOS FAT16"
	FAT32                         FileSystem = "MS-DOS FAT32"
	HFSPlus                       FileSystem = "HFS+"
	CaseSensitiveHFSPlus          FileSystem = "Case-sensitive HFS+"
	CaseSensitiveJournaledHFSPlus FileSystem = "Case-sensitive Journaled HFS+"
	JournaledHFSPlus              FileSystem = "Journaled HFS+"
)

var fileSystems = []FileSystem{
	CaseSensitiveAPFS,
	APFS,
	ExFAT,
	FreeSpace,
	MSDOS,
	FAT12,
	FAT16,
	FAT32,
	HFSPlus,
	CaseSensitiveHFSPlus,
	CaseSensitiveJournaledHFSPlus,
	JournaledHFSPlus,
}

var descriptions = map[FileSystem]string{
	CaseSensitiveAPFS:             "APFS (Case-sensitive)",
	APFS:                          "APFS",
	ExFAT:                         "ExFAT",
	FreeSpace:                     "Free Space",
	MSDOS:                         "MS-DOS (FAT)",
	FAT12:                         "MS-DOS (FAT12)",
	FAT16:                         "MS-DOS (FAT16)",
	FAT32:                         "MS-DOS (FAT32)",
	HFSPlus:                       "Mac OS Extended",
	CaseSensitiveHFSPlus:          "Mac OS Extended (Case-sensitive)",
	CaseSensitiveJournaledHFSPlus: "Mac OS Extended (Case-sensitive, Journaled)",
	JournaledHFSPlus:              "Mac OS Extended (Journaled)",
}

// FileSystems returns every supported personality in menu order
func FileSystems() []FileSystem {
	out := make([]FileSystem, len(fileSystems))
	copy(out, fileSystems)
	return out
}

// Token returns the diskutil personality string
func (f FileSystem) Token() string {
	return string(f)
}

// Description returns the user-facing name shown by Disk Utility
func (f FileSystem) Description() string {
	if d, ok := descriptions[f]; ok {
		return d
	}
	return string(f)
}

func (f FileSystem) String() string {
	return f.Description()
}

// Valid reports whether f is one of the known personalities
func (f FileSystem) Valid() bool {
	_, ok := descriptions[f]
	return ok
}

// ParseFileSystem accepts either a diskutil token or a description,
// case-insensitively.
func ParseFileSystem(s string) (FileSystem, error) {
	s = strings.TrimSpace(s)
	for _, fs := range fileSystems {
		if strings.EqualFold(s, fs.Token()) || strings.EqualFold(s, fs.Description()) {
			return fs, nil
		}
	}
	return "", fmt.Errorf("unknown file system %q", s)
}
