//go:build cgo

package ursaminor

import (
	"io"

	hid "github.com/sstallion/go-hid"
)

func openPath(path string) (io.WriteCloser, error) {
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
