package kstate

import (
	"fmt"
	"sync"
)

// State represents a subscription to a named shared region.
// A State's contents can be read through View but not written through it:
// callers start a Transaction against it to change the region's contents.
type State struct {
	mu sync.Mutex

	opts Options

	id          uint32
	name        string // user-supplied, not canonical
	permissions Permissions
	subscribed  bool

	// mapping is the PROT_READ MAP_SHARED view of the region taken out at
	// Subscribe time and held for the life of the subscription. View
	// returns it directly, unmodified: a write through it traps at the
	// kernel level rather than mutating a throwaway copy, which is the
	// actual enforcement behind the type-level read-only guarantee.
	mapping []byte
}

// NewState allocates a State that is not yet subscribed to anything.
// Pass nil for the default Options (the real POSIX-backed store, no
// metrics, diagnostics to stderr).
func NewState(opts *Options) *State {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	return &State{opts: o}
}

// Subscribe attaches s to the named shared region. With Write permission
// the region is created if it does not already exist; a Read-only
// subscription to a missing region fails with CodeNotFound. permissions
// must be Read, Write, or Read|Write; Write alone is promoted to
// Read|Write, matching kstate_subscribe_state.
//
// Subscribing twice without an intervening Unsubscribe fails with
// CodeInvalidArgument.
func (s *State) Subscribe(name string, permissions Permissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "Subscribe"
	if s.subscribed {
		err := newError(op, CodeInvalidArgument, "state is already subscribed")
		s.opts.logger().Error("subscribe failed", "op", op, "name", name, "error", err)
		return err
	}
	if err := validateName(op, name); err != nil {
		s.opts.logger().Error("subscribe failed", "op", op, "name", name, "error", err)
		return err
	}
	perms, err := permissions.normalize(op)
	if err != nil {
		s.opts.logger().Error("subscribe failed", "op", op, "name", name, "error", err)
		return err
	}

	canon := canonicalName(name)
	var created bool
	if perms.Has(Write) {
		created, err = s.opts.store().OpenOrCreate(canon)
	} else {
		err = s.opts.store().Open(canon)
	}
	if err != nil {
		werr := wrapOSError(op, err)
		s.opts.logger().Error("subscribe failed", "op", op, "name", name, "error", werr)
		return werr
	}

	mapping, err := s.opts.store().Map(canon, false)
	if err != nil {
		werr := wrapOSError(op, err)
		s.opts.logger().Error("subscribe failed", "op", op, "name", name, "error", werr)
		return werr
	}

	id := s.opts.allocator().Next()
	s.id = id
	s.name = name
	s.permissions = perms
	s.subscribed = true
	s.mapping = mapping

	s.opts.logger().Info("subscribed", "name", name, "permissions", perms, "created", created)
	s.opts.observer().OnSubscribe(name, created)
	return nil
}

// Unsubscribe detaches s from its region. If this was the last subscriber
// (which a shared-memory-only model cannot determine itself) the region is
// left in place for the next subscriber; callers that know they hold the
// only reference should use UnsubscribeAndUnlink.
//
// Unsubscribing a State that isn't subscribed fails with CodeInvalidArgument.
func (s *State) Unsubscribe() error {
	return s.unsubscribe(false)
}

// UnsubscribeAndUnlink detaches s and additionally removes the underlying
// shared-memory object, matching kstate_unsubscribe_state's unconditional
// shm_unlink. A region that is already gone (another subscriber unlinked
// it first) is not an error; any other failure to unlink is logged to the
// diagnostic sink, not returned as an error.
func (s *State) UnsubscribeAndUnlink() error {
	return s.unsubscribe(true)
}

func (s *State) unsubscribe(unlink bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "Unsubscribe"
	if !s.subscribed {
		err := newError(op, CodeInvalidArgument, "state is not subscribed")
		s.opts.logger().Error("unsubscribe failed", "op", op, "error", err)
		return err
	}

	name := s.name
	canon := canonicalName(name)

	if err := s.opts.store().Unmap(s.mapping); err != nil {
		s.opts.logger().Warn("failed to unmap shared state", "name", name, "error", err)
	}
	s.mapping = nil

	if unlink {
		if err := s.opts.store().Unlink(canon); err != nil {
			s.opts.logger().Warn("failed to unlink shared state", "name", name, "error", err)
		}
	}

	s.subscribed = false
	s.name = ""
	s.permissions = 0
	s.id = 0
	s.opts.logger().Info("unsubscribed", "name", name, "unlink", unlink)
	s.opts.observer().OnUnsubscribe(name)
	return nil
}

// IsSubscribed reports whether s currently holds a live subscription.
func (s *State) IsSubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// Name returns the user-supplied name s was subscribed with, or "" if s
// isn't subscribed.
func (s *State) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Permissions returns the permissions s was subscribed with, or 0 if s
// isn't subscribed.
func (s *State) Permissions() Permissions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permissions
}

// ID returns the process-local identifier assigned to s when it was
// subscribed, or 0 if s isn't subscribed. It is stable for the lifetime of
// the subscription but is not meaningful across processes.
func (s *State) ID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// View returns the region's live, read-only mapping, without starting a
// Transaction. The returned slice is the real PROT_READ mapping taken out
// at Subscribe time, not a copy: writing through it traps at the kernel
// level rather than silently mutating throwaway memory. Callers that need
// a consistent view across multiple reads, or that need to write, should
// use a Transaction instead. The slice is only valid while s remains
// subscribed; it must not be used after Unsubscribe.
func (s *State) View() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.subscribed {
		return nil, newError("View", CodeInvalidArgument, "state is not subscribed")
	}
	return s.mapping, nil
}

func (s *State) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.subscribed {
		return "State <unsubscribed>"
	}
	return fmt.Sprintf("State %d on '%s' for %s", s.id, s.name, s.permissions)
}
