package leasestore

import (
	"encoding/binary"
	"net/netip"

	"github.com/AdguardTeam/golibs/errors"
)

// recordMagic is the fixed 4-byte header of every lease file.
const recordMagic = "AHCP"

// maxClientIDLen is the maximum length of a client identifier, per
// spec.md §6.
const maxClientIDLen = 650

// maxRecordLen is the maximum size of a lease file: the fixed header plus
// the largest possible client id, per spec.md §5 resource limits.
const maxRecordLen = 4 + 4 + 4 + 4 + maxClientIDLen

// Record is the on-disk representation of a single IPv4 lease.
type Record struct {
	IPv4     netip.Addr
	LeaseEnd uint32
	ClientID []byte
}

// errBadMagic is returned by decodeRecord when the file's header does not
// match [recordMagic].
const errBadMagic errors.Error = "bad lease record magic"

// errRecordTooShort is returned by decodeRecord when the file is shorter
// than the fixed header.
const errRecordTooShort errors.Error = "lease record too short"

// errClientIDTooLong is returned when encoding a record whose client id
// exceeds [maxClientIDLen].
const errClientIDTooLong errors.Error = "client id too long"

func encodeRecord(r Record) (b []byte, err error) {
	if len(r.ClientID) > maxClientIDLen {
		return nil, errClientIDTooLong
	}

	b = make([]byte, 16+len(r.ClientID))
	copy(b[0:4], recordMagic)
	// b[4:8] reserved, left zero.
	copy(b[8:12], r.IPv4.AsSlice())
	binary.BigEndian.PutUint32(b[12:16], r.LeaseEnd)
	copy(b[16:], r.ClientID)

	return b, nil
}

func decodeRecord(b []byte) (r Record, err error) {
	if len(b) < 16 {
		return Record{}, errRecordTooShort
	}

	if string(b[0:4]) != recordMagic {
		return Record{}, errBadMagic
	}

	ipv4, ok := netip.AddrFromSlice(b[8:12])
	if !ok {
		return Record{}, errBadMagic
	}

	return Record{
		IPv4:     ipv4,
		LeaseEnd: binary.BigEndian.Uint32(b[12:16]),
		ClientID: append([]byte(nil), b[16:]...),
	}, nil
}
