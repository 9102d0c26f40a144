package ospf2

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

var _ Message = &Hello{}

// A Hello is an OSPFv2 Hello packet as described in RFC 2328, appendix
// A.3.2.
type Hello struct {
	Header                   Header
	NetworkMask              net.IPMask
	HelloInterval            time.Duration
	Options                  Options
	RouterPriority           uint8
	RouterDeadInterval       time.Duration
	DesignatedRouterID       ID
	BackupDesignatedRouterID ID
	NeighborIDs              []ID
}

// len implements Message.
func (h *Hello) len() int {
	return headerLen + helloLen + (4 * len(h.NeighborIDs))
}

// marshal implements Message.
func (h *Hello) marshal(b []byte) error {
	const n = headerLen
	h.Header.marshal(b[:n], hello, uint16(h.len()))

	mask := h.NetworkMask
	if len(mask) != 4 {
		mask = net.IPMask{0, 0, 0, 0}
	}
	copy(b[n:n+4], mask)
	putUint16Seconds(b[n+4:n+6], h.HelloInterval)
	b[n+6] = byte(h.Options)
	b[n+7] = h.RouterPriority
	binary.BigEndian.PutUint32(b[n+8:n+12], uint32(h.RouterDeadInterval/time.Second))
	copy(b[n+12:n+16], h.DesignatedRouterID[:])
	copy(b[n+16:n+20], h.BackupDesignatedRouterID[:])

	nn := n + 20
	for i := range h.NeighborIDs {
		copy(b[nn:nn+4], h.NeighborIDs[i][:])
		nn += 4
	}

	return nil
}

// unmarshal implements Message.
func (h *Hello) unmarshal(b []byte) error {
	if l := len(b); l < helloLen {
		return fmt.Errorf("not enough bytes for Hello: %d: %w", l, errParse)
	}
	if l := len(b); l%4 != 0 {
		return fmt.Errorf("Hello message must end on a 4 byte boundary, got %d bytes: %w", l, errParse)
	}

	h.NetworkMask = net.IPMask(append([]byte(nil), b[0:4]...))
	h.HelloInterval = uint16Seconds(b[4:6])
	h.Options = Options(b[6])
	h.RouterPriority = b[7]
	h.RouterDeadInterval = time.Duration(binary.BigEndian.Uint32(b[8:12])) * time.Second
	copy(h.DesignatedRouterID[:], b[12:16])
	copy(h.BackupDesignatedRouterID[:], b[16:20])

	h.NeighborIDs = make([]ID, 0, len(b[helloLen:])/4)
	for i := helloLen; i < len(b); i += 4 {
		var id ID
		copy(id[:], b[i:i+4])
		h.NeighborIDs = append(h.NeighborIDs, id)
	}

	return nil
}

// HasNeighbor reports whether rid appears in the Hello's neighbor list,
// meaning the sender has heard from rid recently enough to list it.
func (h *Hello) HasNeighbor(rid ID) bool {
	for _, n := range h.NeighborIDs {
		if n == rid {
			return true
		}
	}
	return false
}

// uint16Seconds interprets big endian uint16 bytes as a number of seconds.
func uint16Seconds(b []byte) time.Duration {
	return time.Duration(binary.BigEndian.Uint16(b)) * time.Second
}

// putUint16Seconds stores d in b as big endian uint16 bytes, rounded to the
// nearest whole second.
func putUint16Seconds(b []byte, d time.Duration) {
	binary.BigEndian.PutUint16(b, uint16(d.Round(time.Second).Seconds()))
}
