package ospf2

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// version is the OSPF version this package implements (OSPFv2).
	version = 2

	// Fixed length structures. Messages with only trailing variable length
	// data have no length constant of their own.
	headerLen    = 24
	lsaLen       = 12
	lsaHeaderLen = 20
	helloLen     = 20 // No trailing array of neighbor IDs.
	ddLen        = 8  // No trailing array of LSA headers.
)

// Sentinel errors used to differentiate various types of errors in tests.
var (
	errMarshal = errors.New("failed to marshal bytes")
	errParse   = errors.New("failed to parse bytes")
)

// A packetType is the type of an OSPFv2 packet, as described in RFC 2328
// appendix A.3.1.
type packetType uint8

// Possible OSPFv2 packet types.
const (
	hello                    packetType = 1
	databaseDescription      packetType = 2
	linkStateRequest         packetType = 3
	linkStateUpdate          packetType = 4
	linkStateAcknowledgement packetType = 5
)

// authType is the OSPFv2 AuType field. This probe never authenticates
// packets, but decodes the field so Header round-trips byte for byte.
type authType uint16

// Possible authType values, per RFC 2328 appendix D and RFC 5709/RFC 2154.
const (
	authNone        authType = 0
	authSimple      authType = 1
	authCryptographic authType = 2
)

// A Header is the 24-byte OSPFv2 packet header described in RFC 2328,
// appendix A.3.1. Header accompanies each Message implementation. Version,
// packet type, and packet length are calculated automatically by
// MarshalMessage; MarshalMessage also always recomputes Checksum,
// overwriting any value the caller supplied.
type Header struct {
	RouterID ID
	AreaID   ID
	Checksum uint16
	AuType   uint16
	Auth     [8]byte
}

// marshal packs a Header's bytes into b, leaving packet type, length, and
// checksum to be filled in by the caller once the full message body is
// known. It assumes b has allocated enough space for a Header to avoid a
// panic.
func (h *Header) marshal(b []byte, ptyp packetType, plen uint16) {
	b[0] = version
	b[1] = byte(ptyp)
	binary.BigEndian.PutUint16(b[2:4], plen)
	copy(b[4:8], h.RouterID[:])
	copy(b[8:12], h.AreaID[:])
	binary.BigEndian.PutUint16(b[12:14], h.Checksum)
	binary.BigEndian.PutUint16(b[14:16], h.AuType)
	copy(b[16:24], h.Auth[:])
}

// parseHeader parses an OSPFv2 Header and the offset of the end of an OSPF
// packet from bytes.
func parseHeader(b []byte) (Header, packetType, int, error) {
	if l := len(b); l < headerLen {
		return Header{}, 0, 0, fmt.Errorf("not enough bytes for OSPFv2 header: %d: %w", l, errParse)
	}

	if v := b[0]; v != version {
		return Header{}, 0, 0, fmt.Errorf("unrecognized OSPF version: %d: %w", v, errParse)
	}

	h := Header{
		Checksum: binary.BigEndian.Uint16(b[12:14]),
		AuType:   binary.BigEndian.Uint16(b[14:16]),
	}
	copy(h.RouterID[:], b[4:8])
	copy(h.AreaID[:], b[8:12])
	copy(h.Auth[:], b[16:24])

	// Make sure the input buffer has enough data as indicated by the packet
	// length field so we know how much to pass to Message.unmarshal.
	plen := int(binary.BigEndian.Uint16(b[2:4]))
	if plen < headerLen {
		return Header{}, 0, 0, fmt.Errorf("header packet length %d is too short for a valid packet: %w", plen, errParse)
	}
	if l := len(b); l < plen {
		return Header{}, 0, 0, fmt.Errorf("header packet length is %d bytes but only %d bytes are available: %w",
			plen, l, errParse)
	}

	return h, packetType(b[1]), plen, nil
}
