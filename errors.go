package kstate

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Code represents a high-level kstate error category.
type Code string

const (
	// CodeInvalidArgument covers misuse: null handle, wrong lifecycle
	// stage, bad permissions, bad name.
	CodeInvalidArgument Code = "invalid argument"
	// CodeNotFound covers a READ-only subscribe naming a region that does
	// not yet exist.
	CodeNotFound Code = "not found"
	// CodePermissionDenied covers commit of a READ-only transaction, and
	// commit over a baseline that no longer matches the live region.
	CodePermissionDenied Code = "permission denied"
	// CodeOutOfMemory covers allocation failure.
	CodeOutOfMemory Code = "out of memory"
	// CodeIO covers any other OS failure surfaced from the shared-object
	// store or memory-mapping facility.
	CodeIO Code = "I/O error"
)

// Error is a structured kstate error: the operation that failed, its
// category, the originating errno (if any) and a human-readable message.
//
// Error implements errors.Is against both Code and the package's sentinel
// errors (ErrInvalidArgument, ErrNotFound, ErrPermissionDenied,
// ErrOutOfMemory), and errors.As against *Error and syscall.Errno.
type Error struct {
	Op    string
	Code  Code
	Errno syscall.Errno
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op == "" {
		return fmt.Sprintf("kstate: %s", msg)
	}
	if e.Errno != 0 {
		return fmt.Sprintf("kstate: %s: %s (errno=%d)", e.Op, msg, e.Errno)
	}
	return fmt.Sprintf("kstate: %s: %s", e.Op, msg)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	if e.Inner != nil {
		return e.Inner
	}
	if e.Errno != 0 {
		return e.Errno
	}
	return nil
}

// Is supports errors.Is comparison against the Code sentinels below.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Code == CodeInvalidArgument
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrPermissionDenied:
		return e.Code == CodePermissionDenied
	case ErrOutOfMemory:
		return e.Code == CodeOutOfMemory
	}
	return false
}

// Sentinel errors for errors.Is comparison against the error taxonomy.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrOutOfMemory      = errors.New("out of memory")
)

func newError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

func newErrnoError(op string, code Code, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// wrapOSError wraps an error returned by the shared-object store or a
// memory-mapping call, mapping the underlying errno (if any) to a Code.
func wrapOSError(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: err}
	}
	if errors.Is(err, os.ErrNotExist) {
		return &Error{Op: op, Code: CodeNotFound, Msg: err.Error(), Inner: err}
	}
	return &Error{Op: op, Code: CodeIO, Msg: err.Error(), Inner: err}
}

func mapErrnoToCode(errno syscall.Errno) Code {
	switch errno {
	case syscall.ENOENT:
		return CodeNotFound
	case syscall.EINVAL, syscall.E2BIG, syscall.ENAMETOOLONG:
		return CodeInvalidArgument
	case syscall.EACCES, syscall.EPERM:
		return CodePermissionDenied
	case syscall.ENOMEM, syscall.ENOSPC:
		return CodeOutOfMemory
	default:
		return CodeIO
	}
}

// AsErrno extracts the syscall.Errno carried by err, if any.
func AsErrno(err error) (syscall.Errno, bool) {
	var e syscall.Errno
	if errors.As(err, &e) {
		return e, true
	}
	return 0, false
}

// NegativeErrno renders err in the C "-errno" convention used by the
// original kstate library, for embedders (e.g. a cgo shim) that need the
// literal C return-value contract. Ordinary Go callers should prefer
// errors.Is / errors.As / AsErrno instead.
func NegativeErrno(err error) int {
	if err == nil {
		return 0
	}
	if errno, ok := AsErrno(err); ok {
		return -int(errno)
	}
	var kerr *Error
	if errors.As(err, &kerr) {
		switch kerr.Code {
		case CodeInvalidArgument:
			return -int(syscall.EINVAL)
		case CodeNotFound:
			return -int(syscall.ENOENT)
		case CodePermissionDenied:
			return -int(syscall.EPERM)
		case CodeOutOfMemory:
			return -int(syscall.ENOMEM)
		}
	}
	return -int(syscall.EIO)
}