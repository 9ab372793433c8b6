package ramdisk

// RawDisk is an OS-supplied snapshot of a volume's description. A rename
// produces a new RawDisk rather than mutating the old one.
type RawDisk struct {
	VolumeName string `json:"volume_name,omitempty"`
	VolumeUUID string `json:"volume_uuid,omitempty"`
	MediaUUID  string `json:"media_uuid,omitempty"`
	MediaSize  int64  `json:"media_size,omitempty"` // bytes, 0 when unknown
	BSDName    string `json:"bsd_name,omitempty"`

	// Classification attributes
	DeviceModel    string `json:"device_model,omitempty"`
	DeviceProtocol string `json:"device_protocol,omitempty"`
	DeviceVendor   string `json:"device_vendor,omitempty"`
	BusName        string `json:"bus_name,omitempty"`
	BusPath        string `json:"bus_path,omitempty"`
	Removable      bool   `json:"removable"`
	Network        bool   `json:"network"`
}

// Same reports whether r and o describe the same OS device. The BSD name is
// the device identity; the media UUID stands in when either side lacks one.
func (r RawDisk) Same(o RawDisk) bool {
	if r.BSDName != "" && o.BSDName != "" {
		return r.BSDName == o.BSDName
	}
	return r.MediaUUID != "" && r.MediaUUID == o.MediaUUID
}

// Classifier holds the description values a volume must carry to be
// considered a RAM disk this program could have created.
type Classifier struct {
	DeviceModel    string `yaml:"device_model"`
	DeviceProtocol string `yaml:"device_protocol"`
	BusName        string `yaml:"bus_name"`
	BusPath        string `yaml:"bus_path"`
	DeviceVendor   string `yaml:"device_vendor"`
}

// DefaultClassifier matches what DiskArbitration reports for `hdid ram://` images
var DefaultClassifier = Classifier{
	DeviceModel:    "Disk Image",
	DeviceProtocol: "Virtual Interface",
	BusName:        "/",
	BusPath:        "IODeviceTree:/",
	DeviceVendor:   "Apple",
}

// IsManaged applies the conjunctive RAM disk predicate. An empty expected
// string in the classifier matches any value.
func (c Classifier) IsManaged(d RawDisk) bool {
	switch {
	case !expect(c.DeviceModel, d.DeviceModel):
		return false
	case !expect(c.DeviceProtocol, d.DeviceProtocol):
		return false
	case !d.Removable:
		return false
	case !expect(c.BusName, d.BusName):
		return false
	case !expect(c.BusPath, d.BusPath):
		return false
	case d.MediaUUID != d.VolumeUUID:
		return false
	case !expect(c.DeviceVendor, d.DeviceVendor):
		return false
	case d.Network:
		return false
	}
	return true
}

func expect(want, got string) bool {
	return want == "" || want == got
}

// IsManaged classifies d with DefaultClassifier
func IsManaged(d RawDisk) bool {
	return DefaultClassifier.IsManaged(d)
}
