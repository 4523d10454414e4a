// Verified backups.
//
// A BackupStore keeps copies of save files under a root directory, one
// subdirectory per day:
//
//	<root>/2024-01-15/14-03-22_career_backup.sav
//
// The file name is the creation time, the original's stem, a purpose
// suffix ("backup", "prerestore") and the original extension. History
// lookups match on "_<stem>_", so that shape is load-bearing.
//
// A copy is first written to a hidden file with a unique random name in the
// day directory. Only after the copy has been read back and its hash matches
// the source is it renamed to its final name. Two backups in the same
// second therefore never overwrite each other, and a half-written or
// corrupted copy never appears under a name ForFile would return. When
// the final name is taken a counter is inserted after the time.
//
// Backups get their own modification time (the time of the backup), not the
// source's. Retention works on that time, so a fresh backup of an old save
// is kept.
package savedit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

// Backup naming.
const (
	DayLayout        = "2006-01-02"
	TimeLayout       = "15-04-05"
	DefaultSuffix    = "backup"
	PreRestoreSuffix = "prerestore"
	partialExt       = ".partial"
)

// BackupRecord describes one verified backup.
type BackupRecord struct {
	OriginalPath string    `json:"original_path"`
	BackupPath   string    `json:"backup_path"`
	Timestamp    time.Time `json:"timestamp"`
	Size         int64     `json:"size"`
	Hash         string    `json:"hash"`
}

// BackupStore creates, verifies, restores and expires backups under a root
// directory.
type BackupStore struct {
	root string
	alg  int
	now  func() time.Time
	log  *Logger
	copy func(src, dst string) error
}

// BackupOption configures a BackupStore.
type BackupOption func(*BackupStore)

// WithHashAlgorithm selects the verification hash (AlgXXHash3, AlgFNV1a,
// AlgBlake2b).
func WithHashAlgorithm(alg int) BackupOption {
	return func(s *BackupStore) { s.alg = alg }
}

// WithClock overrides the time source used for names and retention.
func WithClock(now func() time.Time) BackupOption {
	return func(s *BackupStore) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *Logger) BackupOption {
	return func(s *BackupStore) { s.log = l }
}

// NewBackupStore opens (creating if needed) a store rooted at root.
func NewBackupStore(root string, opts ...BackupOption) (*BackupStore, error) {
	s := &BackupStore{
		root: root,
		alg:  AlgXXHash3,
		now:  time.Now,
		log:  NoopLogger(),
		copy: copyFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := newHasher(s.alg); err != nil {
		return nil, fmt.Errorf("backup store: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("backup store: %w", err)
	}
	return s, nil
}

// Root returns the store's root directory.
func (s *BackupStore) Root() string {
	return s.root
}

// Create copies source into today's directory and verifies the copy. On
// any failure no backup file is left behind.
func (s *BackupStore) Create(source, suffix string) (BackupRecord, error) {
	rec, err := s.create(source, suffix)
	s.log.LogBackup(context.Background(), source, rec, err)
	return rec, err
}

func (s *BackupStore) create(source, suffix string) (BackupRecord, error) {
	lock, err := s.acquire(lockShared)
	if err != nil {
		return BackupRecord{}, fmt.Errorf("backup: lock store: %w", err)
	}
	defer lock.release()

	if suffix == "" {
		suffix = DefaultSuffix
	}
	info, err := os.Stat(source)
	if err != nil {
		return BackupRecord{}, fmt.Errorf("backup: %w", err)
	}
	if !info.Mode().IsRegular() {
		return BackupRecord{}, fmt.Errorf("backup: %s is not a regular file", source)
	}

	now := s.now()
	day := filepath.Join(s.root, now.Format(DayLayout))
	if err := os.MkdirAll(day, 0755); err != nil {
		return BackupRecord{}, fmt.Errorf("backup: %w", err)
	}

	partial := filepath.Join(day, "."+ksuid.New().String()+partialExt)
	if err := s.copy(source, partial); err != nil {
		os.Remove(partial)
		return BackupRecord{}, fmt.Errorf("backup: copy: %w", err)
	}

	want, size, err := hashFile(source, s.alg)
	if err != nil {
		os.Remove(partial)
		return BackupRecord{}, fmt.Errorf("backup: hash source: %w", err)
	}
	got, _, err := hashFile(partial, s.alg)
	if err != nil {
		os.Remove(partial)
		return BackupRecord{}, fmt.Errorf("backup: hash copy: %w", err)
	}
	if got != want {
		os.Remove(partial)
		return BackupRecord{}, fmt.Errorf("%w: %s: source %s, copy %s", ErrBackupVerificationFailed, source, want, got)
	}
	os.Chtimes(partial, now, now)

	final, err := s.claim(day, now, source, suffix, partial)
	if err != nil {
		os.Remove(partial)
		return BackupRecord{}, fmt.Errorf("backup: %w", err)
	}

	return BackupRecord{
		OriginalPath: source,
		BackupPath:   final,
		Timestamp:    now,
		Size:         size,
		Hash:         want,
	}, nil
}

// claim moves partial to the first free final name. os.Link fails when
// the name exists, which makes the claim atomic; filesystems without hard
// links fall back to an existence check and rename.
func (s *BackupStore) claim(day string, now time.Time, source, suffix, partial string) (string, error) {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stamp := now.Format(TimeLayout)

	for n := 0; n < 1000; n++ {
		ts := stamp
		if n > 0 {
			ts = fmt.Sprintf("%s-%d", stamp, n)
		}
		final := filepath.Join(day, fmt.Sprintf("%s_%s_%s%s", ts, stem, suffix, ext))

		err := os.Link(partial, final)
		if err == nil {
			os.Remove(partial)
			return final, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if _, statErr := os.Lstat(final); statErr == nil {
			continue
		}
		if err := os.Rename(partial, final); err != nil {
			return "", err
		}
		return final, nil
	}
	return "", fmt.Errorf("no free backup name for %s in %s", base, day)
}

// Verify reports whether backup has the same size and content hash as
// original.
func (s *BackupStore) Verify(original, backup string) (bool, error) {
	bi, err := os.Stat(backup)
	if errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: %s", ErrBackupNotFound, backup)
	}
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	oi, err := os.Stat(original)
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	if bi.Size() != oi.Size() {
		return false, nil
	}
	a, _, err := hashFile(original, s.alg)
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	b, _, err := hashFile(backup, s.alg)
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	return a == b, nil
}

// Restore replaces target with the content of backup. An existing target
// is itself backed up first with PreRestoreSuffix; if that backup fails
// the target is left alone.
func (s *BackupStore) Restore(backup, target string) error {
	err := s.restore(backup, target)
	s.log.LogRestore(context.Background(), backup, target, err)
	return err
}

func (s *BackupStore) restore(backup, target string) error {
	if _, err := os.Stat(backup); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, backup)
		}
		return fmt.Errorf("restore: %w", err)
	}
	if _, err := os.Stat(target); err == nil {
		if _, err := s.Create(target, PreRestoreSuffix); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}

	data, err := os.ReadFile(backup)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if err := writeAtomic(target, data); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	ok, err := s.Verify(backup, target)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: restored %s does not match %s", ErrBackupVerificationFailed, target, backup)
	}
	return nil
}

// copyFile copies src to a new file dst, syncing before close.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
