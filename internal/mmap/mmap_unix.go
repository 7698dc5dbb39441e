//go:build !windows

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(f *os.File, size int) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	// Snapshot loads read front to back; the hint is advisory, alignment
	// errors are ignored.
	if adviseErr := unix.Madvise(data, unix.MADV_SEQUENTIAL); adviseErr != nil && adviseErr != unix.EINVAL {
		_ = unix.Munmap(data)
		return nil, adviseErr
	}
	return data, nil
}

func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
