//go:build unix

package mem

import "fmt"

import "golang.org/x/sys/unix"

// sysalloc obtain a zero-filled region from the OS, outside the go
// heap.
func sysalloc(size int64) ([]byte, error) {
	buf, err := unix.Mmap(
		-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		fmsg := "%w: mmap %v bytes: %v"
		return nil, fmt.Errorf(fmsg, ErrorOutofMemory, size, err)
	}
	return buf, nil
}

func sysfree(buf []byte) error {
	return unix.Munmap(buf)
}
