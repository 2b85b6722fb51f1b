// Package kstatetest provides test doubles for code that uses kstate:
// an in-memory Store wrapper that tracks call counts, and a diagnostic
// sink that records messages instead of writing them to stderr.
package kstatetest

import (
	"sync"

	"github.com/kynesim/go-kstate/internal/shmstore"
)

// RecordingStore wraps a shmstore.Store (normally one built over
// shmstore.NewFake) and counts calls to each method, for tests that want
// to assert on how many times a State or Transaction touched the store.
type RecordingStore struct {
	inner shmstore.Store

	mu                 sync.Mutex
	openOrCreateCalls  int
	openCalls          int
	mapCalls           int
	unmapCalls         int
	unlinkCalls        int
}

// NewRecordingStore wraps inner in call-tracking.
func NewRecordingStore(inner shmstore.Store) *RecordingStore {
	return &RecordingStore{inner: inner}
}

// NewFakeRecordingStore is a convenience constructor wrapping a fresh
// shmstore.Fake of the given page size.
func NewFakeRecordingStore(pageSize int) *RecordingStore {
	return NewRecordingStore(shmstore.NewFake(pageSize))
}

func (r *RecordingStore) PageSize() int { return r.inner.PageSize() }

func (r *RecordingStore) OpenOrCreate(name string) (bool, error) {
	r.mu.Lock()
	r.openOrCreateCalls++
	r.mu.Unlock()
	return r.inner.OpenOrCreate(name)
}

func (r *RecordingStore) Open(name string) error {
	r.mu.Lock()
	r.openCalls++
	r.mu.Unlock()
	return r.inner.Open(name)
}

func (r *RecordingStore) Map(name string, writable bool) ([]byte, error) {
	r.mu.Lock()
	r.mapCalls++
	r.mu.Unlock()
	return r.inner.Map(name, writable)
}

func (r *RecordingStore) Unmap(mapping []byte) error {
	r.mu.Lock()
	r.unmapCalls++
	r.mu.Unlock()
	return r.inner.Unmap(mapping)
}

func (r *RecordingStore) Unlink(name string) error {
	r.mu.Lock()
	r.unlinkCalls++
	r.mu.Unlock()
	return r.inner.Unlink(name)
}

// CallCounts returns the number of times each Store method has been
// called so far.
func (r *RecordingStore) CallCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]int{
		"open_or_create": r.openOrCreateCalls,
		"open":           r.openCalls,
		"map":            r.mapCalls,
		"unmap":          r.unmapCalls,
		"unlink":         r.unlinkCalls,
	}
}

// Reset zeroes all call counters.
func (r *RecordingStore) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openOrCreateCalls = 0
	r.openCalls = 0
	r.mapCalls = 0
	r.unmapCalls = 0
	r.unlinkCalls = 0
}

var _ shmstore.Store = (*RecordingStore)(nil)
