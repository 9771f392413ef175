package storage

import (
	"errors"
	"io/fs"
	"os"
)

// DatabaseFiles returns the files SQLite keeps for dbPath in WAL mode.
func DatabaseFiles(dbPath string) []string {
	if dbPath == "" || dbPath == ":memory:" {
		return nil
	}
	return []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
}

// DatabaseSize returns the bytes on disk used by the database at dbPath, including
// its WAL and shared-memory files. Missing files count as zero; an in-memory database is 0.
func DatabaseSize(dbPath string) (int64, error) {
	var total int64
	for _, p := range DatabaseFiles(dbPath) {
		info, err := os.Stat(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return 0, err
		case info.IsDir():
			return 0, &fs.PathError{Op: "size", Path: p, Err: errors.New("is a directory")}
		}
		total += info.Size()
	}
	return total, nil
}
