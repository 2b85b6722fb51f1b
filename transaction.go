package kstate

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/kynesim/go-kstate/internal/anonmap"
)

// Transaction represents an in-progress view of, or change to, a State's
// contents. A WRITE transaction's changes are only visible
// to other subscribers once Commit succeeds.
type Transaction struct {
	mu sync.Mutex

	opts Options

	id          uint32
	name        string
	permissions Permissions
	active      bool

	// liveMapping is the MAP_SHARED view of the state's region: reads
	// through it see every other subscriber's writes immediately.
	liveMapping []byte

	// baseline is a snapshot of liveMapping taken when the transaction
	// started, used by Commit to detect whether another writer has
	// changed the region since. Only populated for WRITE transactions.
	//
	// There is an unavoidable race between Start reading liveMapping into
	// baseline and another writer committing in between: exactly as in
	// the original implementation, that window is not locked against.
	baseline []byte

	// working is the transaction's own MAP_PRIVATE|MAP_ANONYMOUS copy.
	// View and ViewMut both return this directly: for a READ transaction
	// it is mapped PROT_READ, so a write through View's result traps at
	// the kernel level instead of silently mutating a throwaway copy.
	// Commit copies it back to liveMapping.
	working []byte
}

// NewTransaction allocates a Transaction that has not yet been started.
// Pass nil for the default Options.
func NewTransaction(opts *Options) *Transaction {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	return &Transaction{opts: o}
}

// Start begins a transaction against state with the given permissions.
// permissions must be Read, Write, or Read|Write; Write alone is promoted
// to Read|Write. Starting a WRITE transaction on a state that was
// subscribed without Write fails with CodeInvalidArgument.
//
// state must currently be subscribed.
func (t *Transaction) Start(state *State, permissions Permissions) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	const op = "Start"
	if t.active {
		err := newError(op, CodeInvalidArgument, "transaction is still active")
		t.opts.logger().Error("start failed", "op", op, "error", err)
		return err
	}
	if state == nil || !state.IsSubscribed() {
		err := newError(op, CodeInvalidArgument, "cannot start a transaction on an unsubscribed state")
		t.opts.logger().Error("start failed", "op", op, "error", err)
		return err
	}

	perms, err := permissions.normalize(op)
	if err != nil {
		t.opts.logger().Error("start failed", "op", op, "name", state.Name(), "error", err)
		return err
	}
	if perms.Has(Write) && !state.Permissions().Has(Write) {
		err := newError(op, CodeInvalidArgument, "cannot start a write transaction on a read-only state")
		t.opts.logger().Error("start failed", "op", op, "name", state.Name(), "error", err)
		return err
	}

	name := state.Name()
	canon := canonicalName(name)
	writable := perms.Has(Write)

	live, err := t.opts.store().Map(canon, writable)
	if err != nil {
		werr := wrapOSError(op, err)
		t.opts.logger().Error("start failed", "op", op, "name", name, "error", werr)
		return werr
	}

	var baseline []byte
	if writable {
		baseline = make([]byte, len(live))
		copy(baseline, live)
	}

	working, err := anonmap.New(len(live), live)
	if err != nil {
		_ = t.opts.store().Unmap(live)
		werr := wrapOSError(op, err)
		t.opts.logger().Error("start failed", "op", op, "name", name, "error", werr)
		return werr
	}
	if !writable {
		if err := anonmap.Protect(working, false); err != nil {
			_ = anonmap.Free(working)
			_ = t.opts.store().Unmap(live)
			werr := wrapOSError(op, err)
			t.opts.logger().Error("start failed", "op", op, "name", name, "error", werr)
			return werr
		}
	}

	t.id = t.opts.allocator().Next()
	t.name = name
	t.permissions = perms
	t.active = true
	t.liveMapping = live
	t.baseline = baseline
	t.working = working

	t.opts.logger().Info("transaction started", "name", name, "permissions", perms)
	t.opts.observer().OnTransactionStart(name, perms)
	return nil
}

// Abort discards the transaction's working copy without affecting the
// underlying state. Aborting a transaction that is not active fails with
// CodeInvalidArgument.
func (t *Transaction) Abort() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	const op = "Abort"
	if !t.active {
		err := newError(op, CodeInvalidArgument, "transaction is not active")
		t.opts.logger().Error("abort failed", "op", op, "error", err)
		return err
	}

	name := t.name
	err := t.clear()
	t.opts.logger().Info("transaction aborted", "name", name)
	t.opts.observer().OnAbort(name)
	return err
}

// Commit writes the transaction's working copy back to the underlying
// state, provided no other writer has changed the state since Start.
//
// Commit fails with CodePermissionDenied if:
//   - the transaction is read-only (it stays active and must be aborted
//     instead), or
//   - the underlying state has changed since Start (a conflicting commit
//     from another transaction landed first).
//
// A successful Commit that found the working copy identical to the
// baseline is a no-op: nothing is written, but the transaction still ends.
// Apart from the read-only case, the transaction is no longer active once
// Commit returns, even on failure.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	const op = "Commit"
	if !t.active {
		err := newError(op, CodeInvalidArgument, "transaction is not active")
		t.opts.logger().Error("commit failed", "op", op, "error", err)
		return err
	}
	if !t.permissions.Has(Write) {
		err := newError(op, CodePermissionDenied, "cannot commit a read-only transaction")
		t.opts.logger().Error("commit failed", "op", op, "name", t.name, "error", err)
		return err
	}

	name := t.name
	var commitErr error
	conflict := false
	noop := false

	switch {
	case !bytes.Equal(t.liveMapping, t.baseline):
		conflict = true
		commitErr = newError(op, CodePermissionDenied, "underlying state changed during the transaction")
	case !bytes.Equal(t.liveMapping, t.working):
		copy(t.liveMapping, t.working)
	default:
		noop = true
	}

	if err := t.clear(); err != nil && commitErr == nil {
		commitErr = err
	}
	if commitErr != nil {
		t.opts.logger().Error("commit failed", "op", op, "name", name, "error", commitErr)
	} else {
		t.opts.logger().Info("transaction committed", "name", name, "noop", noop)
	}
	t.opts.observer().OnCommit(name, conflict, noop)
	return commitErr
}

// clear releases the transaction's mappings and marks it inactive. Callers
// must hold t.mu.
func (t *Transaction) clear() error {
	var firstErr error
	if err := anonmap.Free(t.working); err != nil && firstErr == nil {
		firstErr = wrapOSError("clear", err)
	}
	if err := t.opts.store().Unmap(t.liveMapping); err != nil && firstErr == nil {
		firstErr = wrapOSError("clear", err)
	}
	t.active = false
	t.liveMapping = nil
	t.baseline = nil
	t.working = nil
	return firstErr
}

// IsActive reports whether t currently holds a started, uncommitted
// transaction.
func (t *Transaction) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Name returns the name of the state t was started against.
func (t *Transaction) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// Permissions returns the permissions t was started with.
func (t *Transaction) Permissions() Permissions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.permissions
}

// ID returns the process-local identifier assigned to t when it was
// started.
func (t *Transaction) ID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// View returns the transaction's working data directly: for a WRITE
// transaction this is writable, for a READ transaction it is the real
// PROT_READ working copy, so a write through it traps at the kernel level
// rather than mutating a throwaway copy. It is safe to call for both READ
// and WRITE transactions; the slice is only valid while t remains active.
func (t *Transaction) View() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return nil, newError("View", CodeInvalidArgument, "transaction is not active")
	}
	return t.working, nil
}

// ViewMut returns the transaction's working data for in-place mutation.
// It fails with CodePermissionDenied on a read-only transaction, whose
// working copy is mapped PROT_READ.
func (t *Transaction) ViewMut() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	const op = "ViewMut"
	if !t.active {
		return nil, newError(op, CodeInvalidArgument, "transaction is not active")
	}
	if !t.permissions.Has(Write) {
		return nil, newError(op, CodePermissionDenied, "transaction is read-only")
	}
	return t.working, nil
}

func (t *Transaction) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return "Transaction <not active>"
	}
	return fmt.Sprintf("Transaction %d on '%s' for %s", t.id, t.name, t.permissions)
}
