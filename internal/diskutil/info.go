package diskutil

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sigreer/rdisk/internal/ramdisk"
)

var (
	listHeaderRe = regexp.MustCompile(`^/dev/(disk\d+)\b`)
	listEntryRe  = regexp.MustCompile(`\s(disk\d+(?:s\d+)*)\s*$`)
	sizeBytesRe  = regexp.MustCompile(`\((\d+) Bytes\)`)
)

// List returns every device identifier `diskutil list` prints, whole disks
// first as they appear.
func (t *Tool) List(ctx context.Context) ([]string, error) {
	resp := t.run(ctx, t.diskutil, "list")
	if !resp.OK() {
		return nil, fmt.Errorf("diskutil list failed: %s", resp.Error)
	}
	return ParseList(resp.Output), nil
}

// Info describes one device via `diskutil info`
func (t *Tool) Info(ctx context.Context, id string) (ramdisk.RawDisk, error) {
	resp := t.run(ctx, t.diskutil, "info", id)
	if !resp.OK() {
		return ramdisk.RawDisk{}, fmt.Errorf("diskutil info %s failed: %s", id, resp.Error)
	}
	return ParseInfo(resp.Output), nil
}

// ParseList extracts device identifiers from `diskutil list` output
func ParseList(output string) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if m := listHeaderRe.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if m := listEntryRe.FindStringSubmatch(line); m != nil {
			add(m[1])
		}
	}
	return ids
}

// ParseInfo maps `diskutil info` key/value lines onto a RawDisk
func ParseInfo(output string) ramdisk.RawDisk {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, dup := fields[key]; dup {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}

	d := ramdisk.RawDisk{
		BSDName:        fields["Device Identifier"],
		VolumeName:     volumeName(fields["Volume Name"]),
		VolumeUUID:     canonicalUUID(fields["Volume UUID"]),
		MediaUUID:      canonicalUUID(fields["Disk / Partition UUID"]),
		DeviceModel:    fields["Device / Media Name"],
		DeviceProtocol: fields["Protocol"],
		DeviceVendor:   fields["Device Vendor"],
		BusName:        fields["Bus Name"],
		BusPath:        fields["Bus Path"],
		Removable:      fields["Removable Media"] == "Removable",
		Network:        strings.EqualFold(fields["Network Volume"], "Yes"),
	}

	size := fields["Disk Size"]
	if size == "" {
		size = fields["Total Size"]
	}
	if m := sizeBytesRe.FindStringSubmatch(size); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			d.MediaSize = n
		}
	}
	return d
}

func volumeName(v string) string {
	// diskutil prints "Not applicable (no file system)" for unformatted media
	if strings.HasPrefix(v, "Not applicable") {
		return ""
	}
	return v
}

// canonicalUUID normalises a UUID to the upper-case form CFUUID produces
func canonicalUUID(v string) string {
	if v == "" {
		return ""
	}
	u, err := uuid.Parse(v)
	if err != nil {
		return v
	}
	return strings.ToUpper(u.String())
}
