//go:build !cgo

package ursaminor

import (
	"io"
	"os"
)

func openPath(path string) (io.WriteCloser, error) {
	//nolint:gosec
	return os.OpenFile(path, os.O_WRONLY, 0)
}
