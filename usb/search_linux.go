//go:build linux

package usb

import (
	"os"
	"path/filepath"
)

// SysHIDRawPath is where the kernel lists hidraw nodes. It's a variable so tests can point it at
// a fake tree.
var SysHIDRawPath = "/sys/class/hidraw"

// DevPath is the directory holding the hidraw device nodes.
var DevPath = "/dev"

// searchSysfs uses the hidraw sysfs tree to find all applicable HID devices without hidapi.
func searchSysfs(filter SearchFilter) []Description {
	entries, err := os.ReadDir(SysHIDRawPath)
	if err != nil {
		return nil
	}
	var results []Description
	for _, entry := range entries {
		ueventFile, err := os.Open(filepath.Join(SysHIDRawPath, entry.Name(), "device", "uevent"))
		if err != nil {
			continue
		}
		desc, ok := parseUevent(ueventFile)
		//nolint:errcheck,gosec
		ueventFile.Close()
		if !ok || !filter.matches(desc.ID) {
			continue
		}
		desc.Path = filepath.Join(DevPath, entry.Name())
		results = append(results, desc)
	}
	sortDescriptions(results)
	return results
}
