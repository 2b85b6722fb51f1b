package kstate

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesCodeSentinels(t *testing.T) {
	err := newError("Subscribe", CodeNotFound, "no such region")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrPermissionDenied))
}

func TestErrorUnwrapReachesErrno(t *testing.T) {
	err := newErrnoError("Commit", CodePermissionDenied, syscall.EPERM)
	var errno syscall.Errno
	require.True(t, errors.As(err, &errno))
	assert.Equal(t, syscall.EPERM, errno)
}

func TestWrapOSErrorNilIsNil(t *testing.T) {
	assert.Nil(t, wrapOSError("Open", nil))
}

func TestWrapOSErrorMapsErrnoToCode(t *testing.T) {
	cases := []struct {
		errno syscall.Errno
		want  Code
	}{
		{syscall.ENOENT, CodeNotFound},
		{syscall.EINVAL, CodeInvalidArgument},
		{syscall.EACCES, CodePermissionDenied},
		{syscall.ENOMEM, CodeOutOfMemory},
		{syscall.EIO, CodeIO},
	}
	for _, tc := range cases {
		got := wrapOSError("op", tc.errno)
		require.NotNil(t, got)
		assert.Equal(t, tc.want, got.Code, "wrapOSError(%v)", tc.errno)
	}
}

func TestWrapOSErrorMapsErrNotExistToNotFound(t *testing.T) {
	// shmstore.Open/Map wrap os.ErrNotExist directly rather than a
	// syscall.Errno, so wrapOSError must recognize it on its own.
	err := fmt.Errorf("shm_open %s: %w", "/kstate.Fred", os.ErrNotExist)
	got := wrapOSError("Subscribe", err)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.True(t, errors.Is(got, ErrNotFound))
}

func TestAsErrnoExtractsWrappedErrno(t *testing.T) {
	err := newErrnoError("Open", CodeIO, syscall.EIO)
	errno, ok := AsErrno(err)
	require.True(t, ok)
	assert.Equal(t, syscall.EIO, errno)
}

func TestNegativeErrnoRendersCConvention(t *testing.T) {
	assert.Equal(t, 0, NegativeErrno(nil))

	err := newError("Subscribe", CodeNotFound, "missing")
	assert.Equal(t, -int(syscall.ENOENT), NegativeErrno(err))

	errnoErr := newErrnoError("Map", CodeIO, syscall.EIO)
	assert.Equal(t, -int(syscall.EIO), NegativeErrno(errnoErr))
}

func TestErrorStringIncludesOpAndErrno(t *testing.T) {
	err := newErrnoError("Subscribe", CodeNotFound, syscall.ENOENT)
	assert.NotEmpty(t, err.Error())
	assert.Contains(t, err.Error(), "Subscribe")
	assert.Contains(t, err.Error(), fmt.Sprintf("errno=%d", int(syscall.ENOENT)))
}
