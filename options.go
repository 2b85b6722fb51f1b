package kstate

import (
	"github.com/kynesim/go-kstate/internal/diag"
	"github.com/kynesim/go-kstate/internal/idalloc"
	"github.com/kynesim/go-kstate/internal/shmstore"
)

// Options configures the shared-object store, diagnostic sink, and metrics
// observer used by a State or Transaction. Any nil field, including in the
// zero value, falls back to the default that DefaultOptions would supply.
type Options struct {
	// Store is the shared-object backend. Production callers leave this
	// nil to get shmstore.NewPosix(); tests typically supply
	// kstatetest's recording store over shmstore.NewFake.
	Store shmstore.Store

	// Observer receives lifecycle and commit events. Defaults to
	// NoOpObserver.
	Observer Observer

	// Logger receives non-fatal diagnostics (failed unlinks and the
	// like). Defaults to diag.Default().
	Logger *diag.Logger

	ids *idalloc.Allocator
}

// DefaultOptions returns an Options wired to the real POSIX-backed store,
// no metrics collection, and the package default diagnostic logger.
func DefaultOptions() Options {
	return Options{
		Store:    shmstore.NewPosix(),
		Observer: NoOpObserver{},
		Logger:   diag.Default(),
		ids:      idalloc.New(),
	}
}

func (o *Options) allocator() *idalloc.Allocator {
	if o.ids == nil {
		o.ids = idalloc.New()
	}
	return o.ids
}

func (o *Options) observer() Observer {
	if o.Observer == nil {
		return NoOpObserver{}
	}
	return o.Observer
}

func (o *Options) logger() *diag.Logger {
	if o.Logger == nil {
		return diag.Default()
	}
	return o.Logger
}

func (o *Options) store() shmstore.Store {
	if o.Store == nil {
		o.Store = shmstore.NewPosix()
	}
	return o.Store
}
