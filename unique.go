package kstate

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// uniqueCounter is the process-local monotonic counter appended to every
// generated name; it is a free-running uint32, matching the C
// implementation's "static uint32_t extra" (it is not the id allocator and
// does not avoid zero).
var uniqueCounter atomic.Uint32

// nowFunc is overridden in tests to simulate a failing clock source.
var nowFunc = time.Now

// GetUniqueName produces a well-formed, per-invocation-distinct state name
// of the form "<prefix>.<secs><usecs>.<pid>.<counter>",
// suitable for passing to (*State).Subscribe.
//
// Uniqueness is best-effort, bounded by clock resolution and counter width.
// GetUniqueName fails only if prefix itself would not be a valid state name
// once the suffix is appended, or if the clock source is unavailable.
func GetUniqueName(prefix string) (string, error) {
	if prefix == "" {
		return "", newError("GetUniqueName", CodeInvalidArgument, "prefix may not be empty")
	}

	now := nowFunc()
	if now.IsZero() {
		return "", newError("GetUniqueName", CodeIO, "clock source unavailable")
	}

	secs := now.Unix()
	usecs := now.Nanosecond() / 1000
	pid := os.Getpid()
	counter := uniqueCounter.Add(1) - 1

	name := fmt.Sprintf("%s.%d%06d.%d.%d", prefix, secs, usecs, pid, counter)
	if err := validateName("GetUniqueName", name); err != nil {
		return "", err
	}
	return name, nil
}
