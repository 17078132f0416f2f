//go:build windows

package mem

import "fmt"
import "unsafe"

import "golang.org/x/sys/windows"

// sysalloc obtain a zero-filled region from the OS, outside the go
// heap.
func sysalloc(size int64) ([]byte, error) {
	addr, err := windows.VirtualAlloc(
		0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE,
		windows.PAGE_READWRITE,
	)
	if err != nil {
		fmsg := "%w: virtualalloc %v bytes: %v"
		return nil, fmt.Errorf(fmsg, ErrorOutofMemory, size, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func sysfree(buf []byte) error {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
