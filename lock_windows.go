//go:build windows

package savedit

import (
	"syscall"
	"unsafe"
)

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = modkernel32.NewProc("LockFileEx")
	procUnlockFileEx = modkernel32.NewProc("UnlockFileEx")
)

const lockfileExclusiveLock = 0x00000002

// The whole lock file is locked; its content is never read.
func (l *fileLock) lock(mode lockMode) error {
	var flags uint32
	if mode == lockExclusive {
		flags |= lockfileExclusiveLock
	}
	var overlapped syscall.Overlapped
	r1, _, err := procLockFileEx.Call(
		uintptr(syscall.Handle(l.f.Fd())),
		uintptr(flags),
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}

func (l *fileLock) unlock() error {
	var overlapped syscall.Overlapped
	r1, _, err := procUnlockFileEx.Call(
		uintptr(syscall.Handle(l.f.Fd())),
		0,
		0xFFFFFFFF,
		0xFFFFFFFF,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}
