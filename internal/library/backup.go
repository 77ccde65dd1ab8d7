package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

const backupLayout = "20060102_150405"

// Backuper is implemented by sources that can write a consistent copy of themselves.
type Backuper interface {
	Backup(ctx context.Context, dst string) error
}

// readOnly is implemented by sources that reject every update.
type readOnly interface {
	ReadOnly() bool
}

// BackupName returns the file name of a backup taken at t.
func BackupName(t time.Time) string {
	return fmt.Sprintf("master_backup_%s.db", t.Format(backupLayout))
}

// backup copies the source next to itself (or into BackupDir). Failures are logged and reported as not created.
func (l *Library) backup(ctx context.Context) (string, bool) {
	if !l.opts.Backup {
		return "", false
	}
	if ro, ok := l.src.(readOnly); ok && ro.ReadOnly() {
		return "", false
	}
	path := l.src.Path()
	if path == "" || path == ":memory:" {
		l.logger.Debug("backup skipped, source has no file")
		return "", false
	}

	dir := l.opts.BackupDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	dst := filepath.Join(dir, BackupName(l.opts.Now()))

	var err error
	if b, ok := l.src.(Backuper); ok {
		err = b.Backup(ctx, dst)
	} else {
		err = copyFile(path, dst)
	}
	if err != nil {
		l.logger.Warn("failed to create backup", "path", dst, "err", err)
		return "", false
	}

	if info, err := os.Stat(dst); err == nil {
		l.logger.Info("backup created", "path", dst, "size", humanize.Bytes(uint64(info.Size())))
	}
	return dst, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
