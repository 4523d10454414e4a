// Persist writes the buffer back to disk.
//
// The target is never rewritten in place. In-place rewrite risks losing
// the save on crash: if the process dies mid-write, neither the old nor the
// new content survives. Instead the bytes go to a temp file in the target's
// directory, which is synced, closed and then renamed over the target. A
// crash during the write phase at worst orphans the temp file; the target
// is either entirely old or entirely new.
//
// With a backup requested, the current target is copied to the BackupStore
// and verified first. If that fails nothing is written: the edit stays in
// memory, the document stays dirty, and the caller decides what to do.
package savedit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// PersistOptions controls a single Persist call.
type PersistOptions struct {
	// Backup requires a verified backup of the existing target before it
	// is replaced. A target that does not exist yet has nothing to back up.
	Backup bool
	// Suffix names the backup; empty means DefaultSuffix.
	Suffix string
}

// syncFile flushes a temp file to stable storage. Tests replace it to
// simulate a failure between write and rename.
var syncFile = (*os.File).Sync

// Persist writes the document to target, or to Path when target is empty.
// On success the document is clean and Path becomes target.
func (d *Document) Persist(target string, opts PersistOptions) error {
	if d.state == StateUnloaded {
		return ErrNotLoaded
	}
	if target == "" {
		target = d.path
	}
	if target == "" {
		return fmt.Errorf("persist: no target path")
	}
	log := d.log.WithPath(target)
	ctx := context.Background()

	var backup string
	if opts.Backup {
		rec, err := d.backupTarget(target, opts.Suffix)
		if err != nil {
			err = fmt.Errorf("persist: %w", err)
			log.LogPersist(ctx, target, 0, "", err)
			return err
		}
		backup = rec.BackupPath
	}

	data, err := wrap(d.buf.Bytes(), d.container)
	if err != nil {
		err = fmt.Errorf("persist: %w", err)
		log.LogPersist(ctx, target, 0, backup, err)
		return err
	}
	if err := writeAtomic(target, data); err != nil {
		err = fmt.Errorf("persist: %w", err)
		log.LogPersist(ctx, target, len(data), backup, err)
		return err
	}

	d.path = target
	d.state = StateLoaded
	log.LogPersist(ctx, target, len(data), backup, nil)
	return nil
}

// Flush persists to Path when the document is dirty, taking a backup when
// a BackupStore is configured. A clean document is left untouched.
func (d *Document) Flush() error {
	if !d.Dirty() {
		return nil
	}
	return d.Persist("", PersistOptions{Backup: d.config.Backups != nil})
}

func (d *Document) backupTarget(target, suffix string) (BackupRecord, error) {
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		return BackupRecord{}, nil
	}
	if d.config.Backups == nil {
		return BackupRecord{}, fmt.Errorf("%w: no backup store configured", ErrBackupVerificationFailed)
	}
	return d.config.Backups.Create(target, suffix)
}

// writeAtomic replaces path with data via a synced temp file and rename.
// An existing file's permissions are carried over.
func writeAtomic(path string, data []byte) error {
	perm := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	name := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return fail(fmt.Errorf("write temp: %w", err))
	}
	if err := syncFile(tmp); err != nil {
		return fail(fmt.Errorf("sync: %w", err))
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(fmt.Errorf("chmod: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
