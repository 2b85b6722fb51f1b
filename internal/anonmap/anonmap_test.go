package anonmap

import "testing"

func TestNewCopiesInitialContents(t *testing.T) {
	initial := []byte("hello")
	mapping, err := New(4096, initial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer Free(mapping)

	if len(mapping) != 4096 {
		t.Fatalf("len(mapping) = %d, want 4096", len(mapping))
	}
	for i, b := range initial {
		if mapping[i] != b {
			t.Fatalf("mapping[%d] = %#x, want %#x", i, mapping[i], b)
		}
	}
}

func TestNewIsPrivate(t *testing.T) {
	a, err := New(4096, []byte("a"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer Free(a)

	b, err := New(4096, []byte("a"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer Free(b)

	a[0] = 'x'
	if b[0] == 'x' {
		t.Fatal("mutating one mapping affected another independently-allocated mapping")
	}
}

func TestProtectReadOnlyThenFree(t *testing.T) {
	mapping, err := New(4096, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := Protect(mapping, false); err != nil {
		t.Fatalf("Protect(readonly): %v", err)
	}
	if err := Free(mapping); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestFreeNilIsNoOp(t *testing.T) {
	if err := Free(nil); err != nil {
		t.Fatalf("Free(nil) = %v, want nil", err)
	}
}
