// OS-level locking of a BackupStore.
//
// Two processes sharing a backup root must not interleave a retention pass
// with a backup: Cleanup could remove a day directory while a copy is being
// written into it. The store keeps a lock file in its root. Create holds it
// shared, Cleanup holds it exclusive. Locks are advisory (flock(2) on unix,
// LockFileEx on Windows) and block until granted.
//
// Every acquisition opens its own handle. flock locks belong to the open
// file description, so a nested acquisition in the same process (Restore
// taking a prerestore backup) gets an independent lock instead of
// converting or releasing the outer one.
package savedit

import (
	"errors"
	"os"
	"path/filepath"
)

type lockMode int

const (
	lockShared lockMode = iota
	lockExclusive
)

// lockName is hidden so history walks never mistake it for a backup.
const lockName = ".lock"

// fileLock is one held lock on the store's lock file.
type fileLock struct {
	f *os.File
}

// acquire opens the lock file, creating the root if it has been removed,
// and blocks until the lock is granted in mode.
func (s *BackupStore) acquire(mode lockMode) (*fileLock, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(s.root, lockName), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	l := &fileLock{f: f}
	if err := l.lock(mode); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// release unlocks and closes the handle. Closing alone would drop the lock;
// the explicit unlock reports errors.
func (l *fileLock) release() error {
	return errors.Join(l.unlock(), l.f.Close())
}
