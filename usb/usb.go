// Package usb provides utilities for searching for and working with usb HID devices.
package usb

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Search finds the HID devices matching filter, ordered by device node. It's a variable so tests
// can replace it.
var Search = search

// Description describes a specific HID device node.
type Description struct {
	ID Identifier
	// Path is the platform device path, e.g. /dev/hidraw3 on linux.
	Path string
	// Name is the product string the device reported.
	Name string
	// Serial is the serial number string the device reported, if any.
	Serial string
}

// Identifier identifies a specific USB device by the vendor
// who produced it and the product that it is. These should
// be unique across products.
type Identifier struct {
	Vendor  int
	Product int
}

func (id Identifier) String() string {
	return fmt.Sprintf("%04x:%04x", id.Vendor, id.Product)
}

// SearchFilter narrows a search down to devices matching ID. A zero ID matches every device.
type SearchFilter struct {
	ID Identifier
}

func (filter SearchFilter) matches(id Identifier) bool {
	return filter.ID == Identifier{} || filter.ID == id
}

// parseUevent reads the HID_ID, HID_NAME and HID_UNIQ keys of a HID device uevent file. ok is
// false when the file has no usable HID_ID.
func parseUevent(r io.Reader) (desc Description, ok bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), "=")
		if !found {
			continue
		}
		switch key {
		case "HID_ID":
			// <bus>:<vendor>:<product>, all hex, e.g. 0003:00004098:0000BC27.
			parts := strings.Split(value, ":")
			if len(parts) != 3 {
				continue
			}
			vendorID, err := strconv.ParseInt(parts[1], 16, 64)
			if err != nil {
				continue
			}
			productID, err := strconv.ParseInt(parts[2], 16, 64)
			if err != nil {
				continue
			}
			desc.ID = Identifier{Vendor: int(vendorID), Product: int(productID)}
			ok = true
		case "HID_NAME":
			desc.Name = value
		case "HID_UNIQ":
			desc.Serial = value
		}
	}
	return desc, ok
}

// sortDescriptions orders devices by path, comparing a trailing node number numerically so
// /dev/hidraw2 comes before /dev/hidraw10.
func sortDescriptions(descs []Description) {
	sort.SliceStable(descs, func(i, j int) bool {
		iPrefix, iNum, iOK := splitNodeNumber(descs[i].Path)
		jPrefix, jNum, jOK := splitNodeNumber(descs[j].Path)
		if iOK && jOK && iPrefix == jPrefix && iNum != jNum {
			return iNum < jNum
		}
		return descs[i].Path < descs[j].Path
	})
}

func splitNodeNumber(path string) (string, uint64, bool) {
	end := len(path)
	start := end
	for start > 0 && path[start-1] >= '0' && path[start-1] <= '9' {
		start--
	}
	if start == end {
		return path, 0, false
	}
	n, err := strconv.ParseUint(path[start:end], 10, 64)
	if err != nil {
		return path, 0, false
	}
	return path[:start], n, true
}
