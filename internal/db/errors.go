package db

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Error kinds callers branch on with errors.Is. Storage-unavailable errors
// (bad path, permissions, disk full) are returned as-is from NewStore and
// carry no sentinel: they are fatal and never retried.
var (
	// ErrNotFound reports that a lookup by id or name matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrBusy reports that another process held the write lock past the
	// busy timeout. The caller may retry.
	ErrBusy = errors.New("store busy")
	// ErrDuplicate reports a unique-key or foreign-key violation. Callers
	// with upsert semantics catch this and take the update path.
	ErrDuplicate = errors.New("constraint violation")
)

// translateErr maps driver and GORM errors onto the package's error kinds so
// callers never depend on sqlite3 error codes directly.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", ErrBusy, err)
		case sqlite3.ErrConstraint:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	return err
}
