package shmstore

import (
	"fmt"
	"os"
	"sync"
)

// Fake is an in-process Store used by kstatetest and by this package's own
// tests. It reproduces Posix's page-granularity and create/open/unlink
// semantics without touching /dev/shm, so tests can run unprivileged and in
// parallel.
//
// Map returns the region's actual backing array, not a copy: a real
// MAP_SHARED mapping is the live memory, with no synchronisation of its own,
// and callers (State, Transaction) are already responsible for the same
// ordering real shared memory would require. Fake preserves that, including
// the unlocked race window between a transaction's baseline comparison and
// its write-back at commit time.
type Fake struct {
	pageSize int

	mu      sync.Mutex
	regions map[string][]byte
}

// NewFake returns a Store whose regions are pageSize bytes each.
func NewFake(pageSize int) *Fake {
	if pageSize <= 0 {
		pageSize = 4096
	}
	return &Fake{pageSize: pageSize, regions: make(map[string][]byte)}
}

func (f *Fake) PageSize() int { return f.pageSize }

func (f *Fake) OpenOrCreate(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.regions[name]; ok {
		return false, nil
	}
	f.regions[name] = make([]byte, f.pageSize)
	return true, nil
}

func (f *Fake) Open(name string) error {
	f.mu.Lock()
	_, ok := f.regions[name]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("shm_open %s: %w", name, os.ErrNotExist)
	}
	return nil
}

func (f *Fake) Map(name string, writable bool) ([]byte, error) {
	f.mu.Lock()
	data, ok := f.regions[name]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("shm_open %s: %w", name, os.ErrNotExist)
	}
	return data, nil
}

// Unmap is a no-op: Fake regions live for as long as the Fake itself, there
// is no address space to reclaim.
func (f *Fake) Unmap(mapping []byte) error {
	return nil
}

func (f *Fake) Unlink(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.regions, name)
	return nil
}
