//go:build windows

package sys

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
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

	protect := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if !readOnly {
		protect = windows.PAGE_READWRITE
		access = windows.FILE_MAP_READ | windows.FILE_MAP_WRITE
	}

	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, protect, uint32(size>>32), uint32(size), nil)
	if err != nil {
		f.Close()
		return nil, err
	}

	addr, err := windows.MapViewOfFile(h, access, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		f.Close()
		return nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))

	return &Mapping{
		Data: data,
		unmap: func() error {
			_ = windows.UnmapViewOfFile(addr)
			_ = windows.CloseHandle(h)
			return f.Close()
		},
	}, nil
}
