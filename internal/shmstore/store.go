// Package shmstore abstracts the POSIX shared-memory object that backs a
// kstate State: creation, opening, mapping, and unlinking of a single
// page-sized named region.
//
// Two implementations exist: Posix, which does the real shm_open/mmap dance
// against /dev/shm, and a fake used by kstatetest and by this package's own
// tests, which keeps the same region in process memory. Both satisfy Store.
package shmstore

// Store is the seam between the kstate package and the underlying shared
// memory facility. A Store holds exactly one page-sized region per name.
type Store interface {
	// OpenOrCreate opens the named region for read/write, creating and
	// zero-filling a new page-sized region if it does not already exist.
	// It returns whether the region was newly created.
	OpenOrCreate(name string) (created bool, err error)

	// Open opens an existing named region. It fails with an error wrapping
	// os.ErrNotExist if the region does not exist.
	Open(name string) error

	// Map returns a mapping of the named region's current contents.
	// writable selects PROT_READ|PROT_WRITE versus PROT_READ.
	// The returned mapping must be released with Unmap.
	Map(name string, writable bool) ([]byte, error)

	// Unmap releases a mapping previously returned by Map.
	Unmap(mapping []byte) error

	// Unlink removes the named region so that no further Open/OpenOrCreate
	// call will find it. It does not fail if the region is already gone.
	Unlink(name string) error

	// PageSize reports the fixed region size used by OpenOrCreate.
	PageSize() int
}
