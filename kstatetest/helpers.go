package kstatetest

import (
	"github.com/kynesim/go-kstate"
	"github.com/kynesim/go-kstate/internal/diag"
)

// NewOptions returns kstate.Options wired to a fresh in-memory
// RecordingStore and a Recorder diagnostic sink, for tests that want to
// assert on both store call counts and logged diagnostics.
func NewOptions(pageSize int) (kstate.Options, *RecordingStore, *Recorder) {
	store := NewFakeRecordingStore(pageSize)
	rec := &Recorder{}
	opts := kstate.Options{
		Store:    store,
		Observer: kstate.NoOpObserver{},
		Logger:   diag.NewLogger(&diag.Config{Level: diag.LevelDebug, Output: rec}),
	}
	return opts, store, rec
}

// NewStateWithStore returns a State subscribed to name against a fresh
// RecordingStore, along with the store and recorder for assertions.
func NewStateWithStore(name string, permissions kstate.Permissions) (*kstate.State, *RecordingStore, *Recorder, error) {
	opts, store, rec := NewOptions(4096)
	s := kstate.NewState(&opts)
	if err := s.Subscribe(name, permissions); err != nil {
		return nil, store, rec, err
	}
	return s, store, rec, nil
}
