//go:build cgo

package usb

import (
	"sync"

	hid "github.com/sstallion/go-hid"
)

var (
	hidInitOnce sync.Once
	hidInitErr  error
)

// search enumerates devices through hidapi, which works on linux (hidraw), macOS and Windows.
func search(filter SearchFilter) []Description {
	hidInitOnce.Do(func() {
		hidInitErr = hid.Init()
	})
	if hidInitErr != nil {
		return nil
	}

	var results []Description
	err := hid.Enumerate(uint16(filter.ID.Vendor), uint16(filter.ID.Product), func(info *hid.DeviceInfo) error {
		desc := Description{
			ID:     Identifier{Vendor: int(info.VendorID), Product: int(info.ProductID)},
			Path:   info.Path,
			Name:   info.ProductStr,
			Serial: info.SerialNbr,
		}
		if filter.matches(desc.ID) {
			results = append(results, desc)
		}
		return nil
	})
	if err != nil {
		return nil
	}
	sortDescriptions(results)
	return results
}
