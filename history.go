// Backup history for a single save.
//
// ForFile walks every day directory and collects backups whose name
// contains "_<stem>_", newest first by modification time. Matching is a
// plain substring test rather than a glob, so stems containing glob
// metacharacters ("slot[1]", "save*") match literally. Hidden files are the
// store's in-flight copies and are never returned.
//
// A stem that is a substring of another stem's underscore-delimited parts
// will over-match ("a" matches "x_a_b_backup.sav"); stems are saves' base
// names and in practice distinct.
package savedit

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// BackupEntry is a backup file found on disk.
type BackupEntry struct {
	Path    string    `json:"path"`
	Day     string    `json:"day"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// ForFile returns the backups of original, newest first.
func (s *BackupStore) ForFile(original string) ([]BackupEntry, error) {
	base := filepath.Base(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	needle := "_" + stem + "_"

	var out []BackupEntry
	err := s.walk(func(e BackupEntry) {
		if strings.Contains(filepath.Base(e.Path), needle) {
			out = append(out, e)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	slices.SortStableFunc(out, func(a, b BackupEntry) int {
		return cmp.Or(b.ModTime.Compare(a.ModTime), cmp.Compare(b.Path, a.Path))
	})
	return out, nil
}

// Latest returns the newest backup of original.
func (s *BackupStore) Latest(original string) (BackupEntry, error) {
	entries, err := s.ForFile(original)
	if err != nil {
		return BackupEntry{}, err
	}
	if len(entries) == 0 {
		return BackupEntry{}, fmt.Errorf("%w: no backups of %s", ErrBackupNotFound, original)
	}
	return entries[0], nil
}

// walk visits every visible regular file one level below each day
// directory. A missing root is an empty store.
func (s *BackupStore) walk(fn func(BackupEntry)) error {
	days, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, day := range days {
		if !day.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, day.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			if !f.Type().IsRegular() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue // removed between ReadDir and Info
			}
			fn(BackupEntry{
				Path:    filepath.Join(dir, f.Name()),
				Day:     day.Name(),
				ModTime: info.ModTime(),
				Size:    info.Size(),
			})
		}
	}
	return nil
}
