package leasestore

import (
	"fmt"
	"os"

	"github.com/AdguardTeam/golibs/errors"
)

// Because the lease directory may live on a network filesystem, locking
// uses link(2) rather than O_EXCL, which is not dependably atomic over
// NFS. See spec.md §4.3 and DESIGN.md for why this is hand-rolled against
// os/syscall instead of a library: no dependency in the retrieval pack
// implements this specific link-then-fsync-then-unlink discipline.

// lockPath returns the ".lock" sibling of path.
func lockPath(path string) (p string) {
	return path + ".lock"
}

// openLocked hard-links the existing lease file at path to its ".lock"
// sibling, then reads and decodes it.  It returns [errLocked] if another
// party currently holds the lock (or never released a stale one), and
// os.ErrNotExist if the target file does not exist yet.
func openLocked(path string) (r Record, unlock func() error, err error) {
	lp := lockPath(path)

	err = os.Link(path, lp)
	if err != nil {
		if os.IsExist(err) {
			return Record{}, nil, errLocked
		}

		return Record{}, nil, err
	}

	f, err := os.Open(lp)
	if err != nil {
		_ = os.Remove(lp)

		return Record{}, nil, fmt.Errorf("opening locked lease file: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	b := make([]byte, maxRecordLen)
	n, err := f.Read(b)
	if err != nil && n == 0 {
		_ = os.Remove(lp)

		return Record{}, nil, fmt.Errorf("reading locked lease file: %w", err)
	}

	r, err = decodeRecord(b[:n])
	if err != nil {
		_ = os.Remove(lp)

		return Record{}, nil, err
	}

	return r, func() error { return closeLocked(lp) }, nil
}

// createLocked atomically creates a brand-new lease file at path holding
// r: it writes a pid-suffixed temporary, links it to the ".lock" name (the
// atomicity primitive — this is the step that fails if a concurrent writer
// won the race), links that to the final name, then unlinks the
// pid-temporary. The caller must still call the returned unlock to release
// the ".lock" hold.
func createLocked(path string, r Record) (unlock func() error, err error) {
	b, err := encodeRecord(r)
	if err != nil {
		return nil, err
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, fmt.Errorf("creating lease temp file: %w", err)
	}

	_, err = f.Write(b)
	if err == nil {
		err = f.Sync()
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)

		return nil, fmt.Errorf("writing lease temp file: %w", err)
	}

	lp := lockPath(path)

	err = os.Link(tmp, lp)
	if err != nil {
		_ = os.Remove(tmp)

		if os.IsExist(err) {
			return nil, errLocked
		}

		return nil, fmt.Errorf("linking lease temp file to lock: %w", err)
	}

	err = os.Link(lp, path)
	if err != nil {
		_ = os.Remove(tmp)
		_ = os.Remove(lp)

		return nil, fmt.Errorf("linking lock to final lease file name: %w", err)
	}

	_ = os.Remove(tmp)

	return func() error { return closeLocked(lp) }, nil
}

// writeLocked overwrites the content of an already-locked lease file (the
// file named by lp, the ".lock" path) with r. The caller must hold the
// lock obtained from [openLocked].
func writeLocked(lp string, r Record) (err error) {
	b, err := encodeRecord(r)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(lp, os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("rewriting locked lease file: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	_, err = f.Write(b)
	if err != nil {
		return fmt.Errorf("writing locked lease file: %w", err)
	}

	return f.Sync()
}

// closeLocked unlinks the lock file, releasing the lock while leaving the
// real lease file (its sibling link) in place. The record itself was
// already fsynced in [writeLocked]; a missing or reappearing lock file
// after a crash only affects lock acquisition, never lease data.
func closeLocked(lp string) (err error) {
	return os.Remove(lp)
}
