//go:build !windows

package sys

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(path string, size int64, readOnly bool) (*Mapping, error) {
	flag := os.O_RDWR | os.O_CREATE
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}

	if !readOnly {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		if info.Size() < size {
			if err := f.Truncate(size); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	prot := unix.PROT_READ
	if !readOnly {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Mapping{
		Data: data,
		unmap: func() error {
			if err := unix.Munmap(data); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}, nil
}
