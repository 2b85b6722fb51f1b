// Package anonmap provides the anonymous private working-copy mapping a
// Transaction maps its shared region into, mirroring kstate_start_transaction's
// mmap(NULL, len, PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANONYMOUS, -1, 0).
package anonmap

import "golang.org/x/sys/unix"

// New allocates a private, anonymous region of length bytes, initially
// mapped read/write, and copies in the contents of initial (which must be
// len(initial) <= length).
func New(length int, initial []byte) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	copy(data, initial)
	return data, nil
}

// Protect changes the mapping's protection, used to drop a READ
// transaction's working copy to PROT_READ once it has been populated so
// that accidental writes fault instead of silently succeeding.
func Protect(mapping []byte, writable bool) error {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	return unix.Mprotect(mapping, prot)
}

// Free unmaps a mapping returned by New.
func Free(mapping []byte) error {
	if mapping == nil {
		return nil
	}
	return unix.Munmap(mapping)
}
