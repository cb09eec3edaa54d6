//go:build unix

package mmap

import (
	"errors"

	"golang.org/x/sys/unix"
)

// osMapAnon maps size bytes of private, zero-filled memory outside the Go heap.
func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

var madvise = map[AccessPattern]int{
	AccessDefault:    unix.MADV_NORMAL,
	AccessSequential: unix.MADV_SEQUENTIAL,
	AccessRandom:     unix.MADV_RANDOM,
}

func osAdvise(data []byte, pattern AccessPattern) error {
	advice, ok := madvise[pattern]
	if !ok || len(data) == 0 {
		return nil
	}
	// Some kernels reject advice on anonymous huge pages; it is only a hint.
	if err := unix.Madvise(data, advice); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
