// Retention and statistics for a BackupStore.
//
// Cleanup removes whole day directories whose modification time is older
// than the retention window, then, inside the directories that remain,
// individual backups that are older. A directory's mtime changes whenever
// a backup lands in it, so a day that is still receiving backups is never
// removed wholesale. Failures on individual entries do not stop the pass;
// they are joined into the returned error alongside a report of what was
// removed.
package savedit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultRetentionDays is the retention window used by the CLI.
const DefaultRetentionDays = 30

// CleanupReport counts what a Cleanup pass removed.
type CleanupReport struct {
	DirsRemoved  int `json:"dirs_removed"`
	FilesRemoved int `json:"files_removed"`
}

// Cleanup deletes backups older than retentionDays.
func (s *BackupStore) Cleanup(retentionDays int) (CleanupReport, error) {
	report, err := s.cleanup(retentionDays)
	s.log.LogCleanup(context.Background(), report, err)
	return report, err
}

func (s *BackupStore) cleanup(retentionDays int) (CleanupReport, error) {
	var report CleanupReport
	if retentionDays < 0 {
		return report, fmt.Errorf("cleanup: negative retention %d", retentionDays)
	}
	lock, err := s.acquire(lockExclusive)
	if err != nil {
		return report, fmt.Errorf("cleanup: lock store: %w", err)
	}
	defer lock.release()

	cutoff := s.now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	days, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("cleanup: %w", err)
	}

	var errs []error
	for _, day := range days {
		if !day.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, day.Name())
		info, err := day.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(dir); err != nil {
				errs = append(errs, err)
				continue
			}
			report.DirsRemoved++
			continue
		}

		files, err := os.ReadDir(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, f := range files {
			if !f.Type().IsRegular() {
				continue
			}
			fi, err := f.Info()
			if err != nil || !fi.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, f.Name())); err != nil {
				errs = append(errs, err)
				continue
			}
			report.FilesRemoved++
		}
	}
	if err := errors.Join(errs...); err != nil {
		return report, fmt.Errorf("cleanup: %w", err)
	}
	return report, nil
}

// DayStats summarises one day directory.
type DayStats struct {
	Count int   `json:"count"`
	Size  int64 `json:"size"`
}

// Stats summarises the whole store.
type Stats struct {
	Count     int                 `json:"count"`
	TotalSize int64               `json:"total_size"`
	ByDate    map[string]DayStats `json:"by_date"`
	Oldest    *BackupEntry        `json:"oldest,omitempty"`
	Newest    *BackupEntry        `json:"newest,omitempty"`
}

// HumanSize renders TotalSize in binary units ("1.5 MiB").
func (st Stats) HumanSize() string {
	return humanize.IBytes(uint64(st.TotalSize))
}

// String is a one-line summary.
func (st Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d backups, %s across %d days", st.Count, st.HumanSize(), len(st.ByDate))
	if st.Newest != nil {
		fmt.Fprintf(&b, ", newest %s", humanize.Time(st.Newest.ModTime))
	}
	return b.String()
}

// Stats walks the store and totals backups per day.
func (s *BackupStore) Stats() (Stats, error) {
	st := Stats{ByDate: map[string]DayStats{}}
	err := s.walk(func(e BackupEntry) {
		st.Count++
		st.TotalSize += e.Size
		d := st.ByDate[e.Day]
		d.Count++
		d.Size += e.Size
		st.ByDate[e.Day] = d
		if st.Oldest == nil || e.ModTime.Before(st.Oldest.ModTime) {
			st.Oldest = &e
		}
		if st.Newest == nil || e.ModTime.After(st.Newest.ModTime) {
			st.Newest = &e
		}
	})
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
