//go:build !linux && !cgo

package usb

// search needs hidapi outside of linux, and hidapi needs cgo.
func search(filter SearchFilter) []Description {
	return nil
}
