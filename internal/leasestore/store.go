// Package leasestore implements the server-role IPv4 lease store: on-disk
// per-address lease files with NFS-safe link(2) locking, grace-period
// reuse, startup purge, and an in-memory hint cache.
package leasestore

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/ahcp-project/ahcpd/internal/ahcpclock"
)

// graceSeconds is the window after a lease expires during which the slot
// is still reserved to its previous holder, per spec.md §3.
const graceSeconds = 600

// purgeSeconds is the age at which an expired lease file is deleted at
// startup, per spec.md §3.
const purgeSeconds = 15 * 24 * 3600

// maxLeaseSeconds is the cap applied to any requested lease time, per
// spec.md §4.3.
const maxLeaseSeconds = 3600

// Store is the lease store for one configured address range and
// directory. It is not safe for concurrent use from more than the single
// event-loop goroutine; the only cross-process synchronisation is the
// link-based file lock in lock.go.
type Store struct {
	dir         string
	first, last netip.Addr
	clock       *ahcpclock.Clock
	hints       hintCache
}

// Open opens (but does not purge) the lease store rooted at dir, covering
// the inclusive IPv4 range [first,last].
func Open(dir string, first, last netip.Addr, clock *ahcpclock.Clock) (s *Store, err error) {
	if !first.Is4() || !last.Is4() {
		return nil, errors.Error("lease range must be IPv4")
	}

	return &Store{dir: dir, first: first, last: last, clock: clock}, nil
}

// path returns the lease file path for a.
func (s *Store) path(a netip.Addr) (p string) {
	return filepath.Join(s.dir, a.String())
}

// Init performs the startup purge described in spec.md §4.3: every lease
// file older than [purgeSeconds] past its expiry is unlinked; every
// surviving file seeds the hint cache.
func (s *Store) Init() (err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading lease directory: %w", err)
	}

	now := s.clock.Now()

	for _, ent := range entries {
		name := ent.Name()
		if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".pid") ||
			strings.Contains(name, ".tmp.") {
			continue
		}

		addr, ok := netip.ParseAddr(name)
		if !ok || !addr.Is4() {
			continue
		}

		s.purgeOne(addr, now)
	}

	return nil
}

// purgeOne re-opens the lease file for addr under lock, and unlinks it if
// it is still stale after [purgeSeconds]; otherwise it seeds the hint
// cache.
func (s *Store) purgeOne(addr netip.Addr, now uint32) {
	p := s.path(addr)

	r, unlock, err := openLocked(p)
	if err != nil {
		return
	}
	defer unlock() //nolint:errcheck // best-effort unlock during startup purge

	if uint64(r.LeaseEnd)+purgeSeconds < uint64(now) {
		_ = os.Remove(p)

		return
	}

	s.hints.set(string(r.ClientID), addr)
}

// TakeLease implements spec.md §4.3 take_lease: it clamps requestedLease
// to [maxLeaseSeconds], chooses a starting address, scans the configured
// range circularly, and accepts the first address whose lease file is
// either absent, owned by clientID, or past its grace window.
func (s *Store) TakeLease(
	clientID []byte,
	suggested netip.Addr,
	requestedLease uint32,
) (addr netip.Addr, granted uint32, err error) {
	leaseTime := requestedLease
	if leaseTime > maxLeaseSeconds {
		leaseTime = maxLeaseSeconds
	}

	start := s.first
	if inRange(s.first, s.last, suggested) {
		start = suggested
	} else if hint, ok := s.hints.lookup(string(clientID)); ok && inRange(s.first, s.last, hint) {
		start = hint
	}

	now := s.clock.Now()
	leaseEnd := now + leaseTime

	found := false
	circularRange(s.first, s.last, start, func(cand netip.Addr) (stop bool) {
		ok, terr := s.tryAcquire(cand, clientID, leaseEnd)
		if terr != nil {
			// Locked by another party or a transient I/O error: move on
			// to the next candidate.
			return false
		}

		if ok {
			addr = cand
			found = true

			return true
		}

		return false
	})

	if !found {
		return netip.Addr{}, 0, ErrNoAddress
	}

	s.hints.set(string(clientID), addr)

	return addr, leaseTime, nil
}

// tryAcquire attempts to claim cand's lease file for clientID with the
// given absolute lease-end. It returns ok=true on success.
func (s *Store) tryAcquire(cand netip.Addr, clientID []byte, leaseEnd uint32) (ok bool, err error) {
	p := s.path(cand)

	r, unlock, err := openLocked(p)
	if err != nil {
		if os.IsNotExist(err) {
			unlockNew, cerr := createLocked(p, Record{IPv4: cand, LeaseEnd: leaseEnd, ClientID: clientID})
			if cerr != nil {
				return false, cerr
			}

			// Release the new file's ".lock" hold; best-effort, as the lease
			// file itself is already written.
			_ = unlockNew()

			return true, nil
		}

		return false, err
	}
	defer unlock() //nolint:errcheck // best-effort; the lease file state is unaffected by unlock failure

	now := s.clock.Now()

	sameClient := string(r.ClientID) == string(clientID)
	graceElapsed := uint64(r.LeaseEnd)+graceSeconds < uint64(now)

	if !sameClient && !graceElapsed {
		return false, nil
	}

	err = writeLockedRecord(p, Record{IPv4: cand, LeaseEnd: leaseEnd, ClientID: clientID})

	return err == nil, err
}

// writeLockedRecord rewrites the lease file at path p (already locked by
// the caller's still-open lock, identified by its ".lock" sibling) with r.
func writeLockedRecord(p string, r Record) (err error) {
	return writeLocked(lockPath(p), r)
}

// Release implements spec.md §4.3 release: it is only permitted when the
// file's stored client id matches clientID, in which case lease_end is
// rewritten to now, leaving the record for the grace window.
func (s *Store) Release(clientID []byte, addr netip.Addr) (err error) {
	p := s.path(addr)

	r, unlock, err := openLocked(p)
	if err != nil {
		return fmt.Errorf("releasing lease: %w", err)
	}
	defer unlock() //nolint:errcheck // best-effort unlock after release

	if string(r.ClientID) != string(clientID) {
		return ErrConflict
	}

	now := s.clock.Now()

	return writeLockedRecord(p, Record{IPv4: addr, LeaseEnd: now, ClientID: clientID})
}
