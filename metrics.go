package kstate

import (
	"sync/atomic"
	"time"
)

// Metrics tracks lifecycle and commit-conflict statistics for a set of
// States and Transactions sharing the same Options.
type Metrics struct {
	Subscribes        atomic.Uint64
	Unsubscribes      atomic.Uint64
	TransactionStarts atomic.Uint64
	Commits           atomic.Uint64
	CommitConflicts   atomic.Uint64
	CommitNoops       atomic.Uint64
	Aborts            atomic.Uint64

	StartTime atomic.Int64 // UnixNano
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// MetricsSnapshot is a point-in-time read of Metrics.
type MetricsSnapshot struct {
	Subscribes        uint64
	Unsubscribes      uint64
	TransactionStarts uint64
	Commits           uint64
	CommitConflicts   uint64
	CommitNoops       uint64
	Aborts            uint64
	UptimeNs          uint64
}

// Snapshot returns a point-in-time snapshot of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Subscribes:        m.Subscribes.Load(),
		Unsubscribes:      m.Unsubscribes.Load(),
		TransactionStarts: m.TransactionStarts.Load(),
		Commits:           m.Commits.Load(),
		CommitConflicts:   m.CommitConflicts.Load(),
		CommitNoops:       m.CommitNoops.Load(),
		Aborts:            m.Aborts.Load(),
		UptimeNs:          uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
}

// Reset zeroes all counters, useful for testing.
func (m *Metrics) Reset() {
	m.Subscribes.Store(0)
	m.Unsubscribes.Store(0)
	m.TransactionStarts.Store(0)
	m.Commits.Store(0)
	m.CommitConflicts.Store(0)
	m.CommitNoops.Store(0)
	m.Aborts.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
}

// Observer allows pluggable collection of State/Transaction lifecycle
// events, independent of the built-in Metrics type.
type Observer interface {
	// OnSubscribe is called whenever a State subscribes successfully.
	// created reports whether the region was newly allocated.
	OnSubscribe(name string, created bool)

	// OnUnsubscribe is called whenever a State unsubscribes.
	OnUnsubscribe(name string)

	// OnTransactionStart is called whenever a Transaction starts
	// successfully.
	OnTransactionStart(name string, permissions Permissions)

	// OnCommit is called whenever a WRITE Transaction's commit attempt
	// completes; a refused commit of a read-only Transaction is not reported.
	// conflict reports a baseline mismatch (commit rejected); noop reports
	// a commit whose working copy was unchanged from the baseline.
	OnCommit(name string, conflict bool, noop bool)

	// OnAbort is called whenever a Transaction is aborted.
	OnAbort(name string)
}

// NoOpObserver discards every event. It is the default Observer.
type NoOpObserver struct{}

func (NoOpObserver) OnSubscribe(string, bool)               {}
func (NoOpObserver) OnUnsubscribe(string)                   {}
func (NoOpObserver) OnTransactionStart(string, Permissions) {}
func (NoOpObserver) OnCommit(string, bool, bool)            {}
func (NoOpObserver) OnAbort(string)                          {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) OnSubscribe(string, bool) {
	o.metrics.Subscribes.Add(1)
}

func (o *MetricsObserver) OnUnsubscribe(string) {
	o.metrics.Unsubscribes.Add(1)
}

func (o *MetricsObserver) OnTransactionStart(string, Permissions) {
	o.metrics.TransactionStarts.Add(1)
}

func (o *MetricsObserver) OnCommit(_ string, conflict bool, noop bool) {
	if conflict {
		o.metrics.CommitConflicts.Add(1)
		return
	}
	if noop {
		o.metrics.CommitNoops.Add(1)
		return
	}
	o.metrics.Commits.Add(1)
}

func (o *MetricsObserver) OnAbort(string) {
	o.metrics.Aborts.Add(1)
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)