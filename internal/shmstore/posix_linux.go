package shmstore

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// shmDir is where Linux mounts POSIX shared-memory objects; shm_open(3)
// itself is implemented this way in glibc, and it is the only portable
// entry point available without cgo.
const shmDir = "/dev/shm"

// Posix is the real Store, backed by a POSIX shared-memory object under
// /dev/shm and mmap(2). Every region is exactly one page, matching
// kstate_subscribe_state's ftruncate-to-sysconf(_SC_PAGESIZE) behaviour.
type Posix struct {
	pageSize int
}

// NewPosix returns a Store backed by the system's native page size.
func NewPosix() *Posix {
	return &Posix{pageSize: unix.Getpagesize()}
}

func (p *Posix) PageSize() int { return p.pageSize }

func (p *Posix) path(name string) string {
	return filepath.Join(shmDir, name)
}

func (p *Posix) OpenOrCreate(name string) (bool, error) {
	path := p.path(name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0666)
	if err == nil {
		defer unix.Close(fd)
		if err := unix.Ftruncate(fd, int64(p.pageSize)); err != nil {
			unix.Unlink(path)
			return false, fmt.Errorf("ftruncate %s: %w", name, err)
		}
		return true, nil
	}
	if err != unix.EEXIST {
		return false, fmt.Errorf("shm_open %s: %w", name, err)
	}

	fd, err = unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return false, fmt.Errorf("shm_open %s: %w", name, err)
	}
	unix.Close(fd)
	return false, nil
}

func (p *Posix) Open(name string) error {
	path := p.path(name)
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		if err == unix.ENOENT {
			return fmt.Errorf("shm_open %s: %w", name, os.ErrNotExist)
		}
		return fmt.Errorf("shm_open %s: %w", name, err)
	}
	return unix.Close(fd)
}

func (p *Posix) Map(name string, writable bool) ([]byte, error) {
	path := p.path(name)
	flags := unix.O_RDONLY
	if writable {
		flags = unix.O_RDWR
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		if err == unix.ENOENT {
			return nil, fmt.Errorf("shm_open %s: %w", name, os.ErrNotExist)
		}
		return nil, fmt.Errorf("shm_open %s: %w", name, err)
	}
	defer unix.Close(fd)

	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(fd, 0, p.pageSize, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", name, err)
	}
	return data, nil
}

func (p *Posix) Unmap(mapping []byte) error {
	if mapping == nil {
		return nil
	}
	return unix.Munmap(mapping)
}

func (p *Posix) Unlink(name string) error {
	err := unix.Unlink(p.path(name))
	if err != nil && err != unix.ENOENT {
		return fmt.Errorf("shm_unlink %s: %w", name, err)
	}
	return nil
}
