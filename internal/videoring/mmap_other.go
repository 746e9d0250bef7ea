//go:build !unix

package videoring

import (
	"errors"
	"os"
)

var errMmapUnsupported = errors.New("videoring: mmap unsupported on this platform")

func mmapFile(f *os.File, size int64) ([]byte, error) {
	return nil, errMmapUnsupported
}

func munmapFile(data []byte) error {
	return nil
}
