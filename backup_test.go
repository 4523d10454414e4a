package savedit

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fixedClock returns a clock stuck at 2024-01-15 14:03:22 local time.
func fixedClock() func() time.Time {
	at := time.Date(2024, 1, 15, 14, 3, 22, 0, time.Local)
	return func() time.Time { return at }
}

// corruptingCopy writes the source with its first byte flipped, as a bad
// disk or interrupted copy might.
func corruptingCopy(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		data[0] ^= 0xFF
	}
	return os.WriteFile(dst, data, 0644)
}

func newTestStore(t *testing.T, opts ...BackupOption) *BackupStore {
	t.Helper()
	s, err := NewBackupStore(filepath.Join(t.TempDir(), "backups"), opts...)
	if err != nil {
		t.Fatalf("NewBackupStore: %v", err)
	}
	return s
}

func TestBackupCreate(t *testing.T) {
	src := writeTestSave(t)
	s := newTestStore(t, WithClock(fixedClock()))

	rec, err := s.Create(src, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := filepath.Join(s.Root(), "2024-01-15", "14-03-22_career_backup.sav")
	if rec.BackupPath != want {
		t.Errorf("BackupPath = %q, want %q", rec.BackupPath, want)
	}
	if rec.OriginalPath != src || rec.Size != 64 || rec.Hash == "" {
		t.Errorf("record = %+v", rec)
	}
	got, _ := os.ReadFile(rec.BackupPath)
	if !bytes.Equal(got, testSave()) {
		t.Error("backup content differs")
	}
	info, _ := os.Stat(rec.BackupPath)
	if !info.ModTime().Equal(rec.Timestamp) {
		t.Errorf("mtime = %v, want backup time %v", info.ModTime(), rec.Timestamp)
	}
}

// Two backups of the same file in the same second get distinct names, and
// the second still matches the history lookup.
func TestBackupSameSecond(t *testing.T) {
	src := writeTestSave(t)
	s := newTestStore(t, WithClock(fixedClock()))

	a, err := s.Create(src, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Create(src, "")
	if err != nil {
		t.Fatal(err)
	}
	if a.BackupPath == b.BackupPath {
		t.Fatal("second backup overwrote the first")
	}
	if filepath.Base(b.BackupPath) != "14-03-22-1_career_backup.sav" {
		t.Errorf("second name = %q", filepath.Base(b.BackupPath))
	}
	entries, _ := s.ForFile(src)
	if len(entries) != 2 {
		t.Errorf("ForFile found %d backups, want 2", len(entries))
	}
}

// A copy that does not hash the same as its source is discarded: no file
// under the final name, and no partial file left in the day directory.
func TestBackupCorruptedCopy(t *testing.T) {
	src := writeTestSave(t)
	s := newTestStore(t, WithClock(fixedClock()))
	s.copy = corruptingCopy

	_, err := s.Create(src, "")
	if !errors.Is(err, ErrBackupVerificationFailed) {
		t.Fatalf("expected ErrBackupVerificationFailed, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(s.Root(), "2024-01-15"))
	if len(entries) != 0 {
		t.Errorf("day directory holds %d files after failed backup", len(entries))
	}
}

func TestBackupMissingSource(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create(filepath.Join(t.TempDir(), "nope.sav"), "")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v", err)
	}
}

func TestBackupHashAlgorithms(t *testing.T) {
	src := writeTestSave(t)
	lengths := map[int]int{AlgXXHash3: 32, AlgFNV1a: 16, AlgBlake2b: 64}
	for alg, n := range lengths {
		s := newTestStore(t, WithHashAlgorithm(alg))
		rec, err := s.Create(src, "")
		if err != nil {
			t.Fatalf("alg %d: %v", alg, err)
		}
		if len(rec.Hash) != n {
			t.Errorf("alg %d: hash %q has %d hex digits, want %d", alg, rec.Hash, len(rec.Hash), n)
		}
	}
	if _, err := NewBackupStore(t.TempDir(), WithHashAlgorithm(9)); err == nil {
		t.Error("unknown algorithm accepted")
	}
}

func TestVerify(t *testing.T) {
	src := writeTestSave(t)
	s := newTestStore(t)
	rec, err := s.Create(src, "")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := s.Verify(src, rec.BackupPath)
	if err != nil || !ok {
		t.Errorf("fresh backup: ok=%v err=%v", ok, err)
	}

	// Tamper with one byte, same size.
	data, _ := os.ReadFile(rec.BackupPath)
	data[10] ^= 1
	os.WriteFile(rec.BackupPath, data, 0644)
	ok, err = s.Verify(src, rec.BackupPath)
	if err != nil || ok {
		t.Errorf("tampered: ok=%v err=%v", ok, err)
	}

	// Different size.
	os.WriteFile(rec.BackupPath, data[:10], 0644)
	ok, _ = s.Verify(src, rec.BackupPath)
	if ok {
		t.Error("truncated backup verified")
	}

	if _, err := s.Verify(src, filepath.Join(s.Root(), "missing")); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("missing backup: %v", err)
	}
}

func TestRestore(t *testing.T) {
	target := writeTestSave(t)
	s := newTestStore(t)
	rec, err := s.Create(target, "")
	if err != nil {
		t.Fatal(err)
	}

	edited := testSave()
	edited[16] = 0xFF
	os.WriteFile(target, edited, 0644)

	if err := s.Restore(rec.BackupPath, target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, testSave()) {
		t.Error("target not restored")
	}

	// The edited version was kept as a prerestore backup.
	entries, _ := s.ForFile(target)
	var pre string
	for _, e := range entries {
		if strings.Contains(filepath.Base(e.Path), "_"+PreRestoreSuffix) {
			pre = e.Path
		}
	}
	if pre == "" {
		t.Fatal("no prerestore backup")
	}
	kept, _ := os.ReadFile(pre)
	if !bytes.Equal(kept, edited) {
		t.Error("prerestore backup does not hold the replaced content")
	}
}

func TestRestoreToNewTarget(t *testing.T) {
	src := writeTestSave(t)
	s := newTestStore(t)
	rec, _ := s.Create(src, "")

	target := filepath.Join(t.TempDir(), "restored.sav")
	if err := s.Restore(rec.BackupPath, target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	entries, _ := s.ForFile(target)
	if len(entries) != 0 {
		t.Errorf("prerestore backup taken of a file that did not exist: %v", entries)
	}
}

func TestRestoreMissingBackup(t *testing.T) {
	target := writeTestSave(t)
	s := newTestStore(t)

	err := s.Restore(filepath.Join(s.Root(), "2024-01-15", "nope.sav"), target)
	if !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("got %v", err)
	}
	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, testSave()) {
		t.Error("target changed")
	}
}

// If the safety backup of the current target fails, the restore does not
// go ahead.
func TestRestoreBlockedByFailedPrerestore(t *testing.T) {
	target := writeTestSave(t)
	s := newTestStore(t)
	rec, _ := s.Create(target, "")

	edited := testSave()
	edited[0] = 1
	os.WriteFile(target, edited, 0644)

	s.copy = corruptingCopy
	if err := s.Restore(rec.BackupPath, target); !errors.Is(err, ErrBackupVerificationFailed) {
		t.Fatalf("got %v", err)
	}
	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, edited) {
		t.Error("target replaced without a safety backup")
	}
}
