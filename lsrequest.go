package ospf2

import (
	"encoding/binary"
	"fmt"
)

// A RequestEntry identifies a single LSA requested in a LinkStateRequest
// packet, as described in RFC 2328, appendix A.3.4. The wire format reserves
// a full 32-bit word for the LS type even though only the low byte is ever
// nonzero.
type RequestEntry struct {
	Type              LSType
	LinkStateID       ID
	AdvertisingRouter ID
}

// marshal packs a RequestEntry's bytes into b. It assumes b has allocated
// enough space for a RequestEntry to avoid a panic.
func (r RequestEntry) marshal(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], uint32(r.Type))
	copy(b[4:8], r.LinkStateID[:])
	copy(b[8:12], r.AdvertisingRouter[:])
}

// parseRequestEntry unpacks a RequestEntry from a byte slice.
func parseRequestEntry(b []byte) RequestEntry {
	return RequestEntry{
		Type:              LSType(binary.BigEndian.Uint32(b[0:4])),
		LinkStateID:       idFrom(b[4:8]),
		AdvertisingRouter: idFrom(b[8:12]),
	}
}

var _ Message = &LinkStateRequest{}

// A LinkStateRequest is an OSPFv2 Link State Request packet as described in
// RFC 2328, appendix A.3.4. This probe only ever sends LinkStateRequest
// packets; it never honors one received from a neighbor, since a passive
// probe holds no LSAs that a peer wouldn't already have.
type LinkStateRequest struct {
	Header   Header
	Requests []RequestEntry
}

// len implements Message.
func (lsr *LinkStateRequest) len() int {
	return headerLen + (lsaLen * len(lsr.Requests))
}

// marshal implements Message.
func (lsr *LinkStateRequest) marshal(b []byte) error {
	const n = headerLen
	lsr.Header.marshal(b[:n], linkStateRequest, uint16(lsr.len()))

	nn := n
	for i := range lsr.Requests {
		lsr.Requests[i].marshal(b[nn : nn+lsaLen])
		nn += lsaLen
	}

	return nil
}

// unmarshal implements Message.
func (lsr *LinkStateRequest) unmarshal(b []byte) error {
	if l := len(b); l%lsaLen != 0 {
		return fmt.Errorf("LinkStateRequest message must end on a 12 byte boundary, got %d bytes: %w", l, errParse)
	}

	n := len(b) / lsaLen
	lsr.Requests = make([]RequestEntry, 0, n)
	for i := 0; i < n; i++ {
		start := i * lsaLen
		end := start + lsaLen
		lsr.Requests = append(lsr.Requests, parseRequestEntry(b[start:end]))
	}

	return nil
}
