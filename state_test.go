package kstate

import (
	"errors"
	"testing"

	"github.com/kynesim/go-kstate/internal/shmstore"
)

func testOptions() *Options {
	return &Options{Store: shmstore.NewFake(4096), Observer: NoOpObserver{}}
}

func TestStateSubscribeAndUnsubscribe(t *testing.T) {
	s := NewState(testOptions())
	if s.IsSubscribed() {
		t.Fatal("new State reports subscribed")
	}

	if err := s.Subscribe("Fred", Read|Write); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !s.IsSubscribed() {
		t.Fatal("IsSubscribed() = false after Subscribe")
	}
	if s.Name() != "Fred" {
		t.Errorf("Name() = %q, want Fred", s.Name())
	}
	if s.Permissions() != Read|Write {
		t.Errorf("Permissions() = %v, want Read|Write", s.Permissions())
	}
	if s.ID() == 0 {
		t.Error("ID() = 0, want non-zero")
	}

	if err := s.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if s.IsSubscribed() {
		t.Fatal("IsSubscribed() = true after Unsubscribe")
	}
}

func TestStateSubscribeTwiceFails(t *testing.T) {
	s := NewState(testOptions())
	if err := s.Subscribe("Fred", Read|Write); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := s.Subscribe("Fred", Read); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("second Subscribe = %v, want ErrInvalidArgument", err)
	}
}

func TestStateUnsubscribeWithoutSubscribeFails(t *testing.T) {
	s := NewState(testOptions())
	if err := s.Unsubscribe(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Unsubscribe() = %v, want ErrInvalidArgument", err)
	}
}

func TestStateSubscribeRejectsBadName(t *testing.T) {
	s := NewState(testOptions())
	if err := s.Subscribe(".Fred", Read); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Subscribe(bad name) = %v, want ErrInvalidArgument", err)
	}
}

func TestStateViewReflectsWrites(t *testing.T) {
	opts := testOptions()
	s := NewState(opts)
	if err := s.Subscribe("Fred", Read|Write); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	tx := NewTransaction(opts)
	if err := tx.Start(s, Write); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mut, err := tx.ViewMut()
	if err != nil {
		t.Fatalf("ViewMut: %v", err)
	}
	mut[0] = 0xAB
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	view, err := s.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view[0] != 0xAB {
		t.Errorf("View()[0] = %#x, want 0xab", view[0])
	}
}

func TestStateViewReturnsLiveMappingNotCopy(t *testing.T) {
	opts := testOptions()
	s := NewState(opts)
	if err := s.Subscribe("Fred", Read|Write); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	first, err := s.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	second, err := s.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if &first[0] != &second[0] {
		t.Fatal("two View() calls returned different backing arrays; View must return the persistent mapping, not a fresh copy")
	}

	tx := NewTransaction(opts)
	if err := tx.Start(s, Write); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mut, err := tx.ViewMut()
	if err != nil {
		t.Fatalf("ViewMut: %v", err)
	}
	mut[0] = 0xCD
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if first[0] != 0xCD {
		t.Errorf("first[0] = %#x after commit, want 0xcd (same live mapping, no re-fetch needed)", first[0])
	}
}

func TestStateUnsubscribeAndUnlinkRemovesRegion(t *testing.T) {
	store := shmstore.NewFake(4096)
	opts := &Options{Store: store, Observer: NoOpObserver{}}

	s := NewState(opts)
	if err := s.Subscribe("Fred", Read|Write); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := s.UnsubscribeAndUnlink(); err != nil {
		t.Fatalf("UnsubscribeAndUnlink: %v", err)
	}

	other := NewState(opts)
	if err := other.Subscribe("Fred", Read); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Subscribe(read-only, missing region) = %v, want ErrNotFound", err)
	}
}
