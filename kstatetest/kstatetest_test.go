package kstatetest

import (
	"strings"
	"testing"

	"github.com/kynesim/go-kstate"
)

func TestRecordingStoreCountsCalls(t *testing.T) {
	store := NewFakeRecordingStore(64)
	if _, err := store.OpenOrCreate("/kstate.Fred"); err != nil {
		t.Fatalf("OpenOrCreate: %v", err)
	}
	if _, err := store.Map("/kstate.Fred", true); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if err := store.Unlink("/kstate.Fred"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}

	counts := store.CallCounts()
	if counts["open_or_create"] != 1 || counts["map"] != 1 || counts["unlink"] != 1 {
		t.Errorf("CallCounts() = %+v, want one of each", counts)
	}
}

func TestRecordingStoreResetClearsCounts(t *testing.T) {
	store := NewFakeRecordingStore(64)
	store.OpenOrCreate("/kstate.Fred")
	store.Reset()
	counts := store.CallCounts()
	if counts["open_or_create"] != 0 {
		t.Errorf("CallCounts() after Reset = %+v, want all zero", counts)
	}
}

func TestNewStateWithStoreSubscribesAndRecords(t *testing.T) {
	s, store, _, err := NewStateWithStore("Fred", kstate.Read|kstate.Write)
	if err != nil {
		t.Fatalf("NewStateWithStore: %v", err)
	}
	if !s.IsSubscribed() {
		t.Fatal("returned State is not subscribed")
	}
	if store.CallCounts()["open_or_create"] != 1 {
		t.Errorf("expected exactly one open_or_create call, got %+v", store.CallCounts())
	}
}

func TestRecorderCapturesDiagnostics(t *testing.T) {
	opts, _, rec := NewOptions(4096)
	s := kstate.NewState(&opts)
	if err := s.Subscribe("Fred", kstate.Read|kstate.Write); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got := rec.String(); !strings.Contains(got, "subscribed") || !strings.Contains(got, "Fred") {
		t.Fatalf("Recorder after Subscribe = %q, want a line mentioning subscribed/Fred", got)
	}

	rec.Reset()
	if err := s.UnsubscribeAndUnlink(); err != nil {
		t.Fatalf("UnsubscribeAndUnlink: %v", err)
	}
	if got := rec.String(); !strings.Contains(got, "unsubscribed") || !strings.Contains(got, "Fred") {
		t.Fatalf("Recorder after UnsubscribeAndUnlink = %q, want a line mentioning unsubscribed/Fred", got)
	}

	rec.Reset()
	if err := s.Unsubscribe(); err == nil {
		t.Fatal("Unsubscribe on an already-unsubscribed State unexpectedly succeeded")
	}
	if got := rec.String(); !strings.Contains(got, "unsubscribe failed") {
		t.Fatalf("Recorder after failing Unsubscribe = %q, want a line mentioning unsubscribe failed", got)
	}
}
