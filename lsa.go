package ospf2

import (
	"encoding/binary"
	"time"
)

// An LSType is the type of an OSPFv2 Link State Advertisement, as described
// in RFC 2328 appendix A.4.1, extended by RFC 2370 (opaque LSAs) and RFC
// 3101 (NSSA).
type LSType uint8

// Possible LSType values.
const (
	RouterLSA        LSType = 1
	NetworkLSA       LSType = 2
	SummaryLSA       LSType = 3
	SummaryASBRLSA   LSType = 4
	ASExternalLSA    LSType = 5
	NSSALSA          LSType = 7
	OpaqueLinkLSA    LSType = 9
	OpaqueAreaLSA    LSType = 10
	OpaqueASLSA      LSType = 11
)

// ASScoped reports whether LSAs of type t are flooded throughout the entire
// autonomous system rather than confined to a single area.
func (t LSType) ASScoped() bool {
	return t == ASExternalLSA || t == OpaqueASLSA
}

// MaxAge is the age, in seconds, at which an LSA is considered to have
// reached the end of its useful lifetime (RFC 2328 section 13.4).
const MaxAge = 3600 * time.Second

// MaxSequenceNumber is the largest sequence number an LSA may carry (RFC
// 2328 section 12.1.6); LS sequence numbers are treated as signed 32-bit
// integers and wrap from here back to InitialSequenceNumber.
const MaxSequenceNumber uint32 = 0x7fffffff

// InitialSequenceNumber is the value RFC 2328 reserves as "the smallest
// possible" LS sequence number used by an originator's very first instance
// of an LSA.
const InitialSequenceNumber uint32 = 0x80000001

// doNotAgeBit is the high bit of the 16-bit LS age field, used to mark an
// LSA as exempt from aging (RFC 3623 appendix A/RFC 5613).
const doNotAgeBit uint16 = 0x8000

// An LSAHeader is the 20-byte OSPFv2 Link State Advertisement header
// described in RFC 2328, appendix A.4.1.
type LSAHeader struct {
	Age               time.Duration
	DoNotAge          bool
	Options           Options
	Type              LSType
	LinkStateID       ID
	AdvertisingRouter ID
	SequenceNumber    uint32
	Checksum          uint16
	Length            uint16
}

// Key returns the identity under which lsa is stored and compared in an
// LSDB, as described in RFC 2328 section 12.1: (Type, LinkStateID,
// AdvertisingRouter) for AS-scoped LSAs, plus the owning area for all
// others. Callers supply the owning area's ID; it is ignored for AS-scoped
// types.
func (h LSAHeader) Key(area ID) LSAKey {
	k := LSAKey{
		Type:              h.Type,
		LinkStateID:       h.LinkStateID,
		AdvertisingRouter: h.AdvertisingRouter,
	}
	if !h.Type.ASScoped() {
		k.AreaID = area
	}
	return k
}

// marshal stores the LSAHeader bytes into b. It assumes b has allocated
// enough space for an LSAHeader to avoid a panic.
func (h LSAHeader) marshal(b []byte) {
	age := uint16(h.Age / time.Second)
	if h.DoNotAge {
		age |= doNotAgeBit
	}
	binary.BigEndian.PutUint16(b[0:2], age)
	b[2] = byte(h.Options)
	b[3] = byte(h.Type)
	copy(b[4:8], h.LinkStateID[:])
	copy(b[8:12], h.AdvertisingRouter[:])
	binary.BigEndian.PutUint32(b[12:16], h.SequenceNumber)
	binary.BigEndian.PutUint16(b[16:18], h.Checksum)
	binary.BigEndian.PutUint16(b[18:20], h.Length)
}

// parseLSAHeader unpacks an LSAHeader from a byte slice.
func parseLSAHeader(b []byte) LSAHeader {
	rawAge := binary.BigEndian.Uint16(b[0:2])
	return LSAHeader{
		Age:               time.Duration(rawAge&^doNotAgeBit) * time.Second,
		DoNotAge:          rawAge&doNotAgeBit != 0,
		Options:           Options(b[2]),
		Type:              LSType(b[3]),
		LinkStateID:       idFrom(b[4:8]),
		AdvertisingRouter: idFrom(b[8:12]),
		SequenceNumber:    binary.BigEndian.Uint32(b[12:16]),
		Checksum:          binary.BigEndian.Uint16(b[16:18]),
		Length:            binary.BigEndian.Uint16(b[18:20]),
	}
}

func idFrom(b []byte) ID {
	var id ID
	copy(id[:], b)
	return id
}

// LSAKey is the identity of an LSA within an LSDB: (Type, LinkStateID,
// AdvertisingRouter) for AS-scoped LSAs, plus AreaID for all others, per RFC
// 2328 section 12.1.
type LSAKey struct {
	Type              LSType
	AreaID            ID
	LinkStateID       ID
	AdvertisingRouter ID
}
