package ospf2

import (
	"encoding/binary"
	"fmt"
)

// DDFlags are flags which may appear in an OSPFv2 Database Description
// packet as described in RFC 2328, appendix A.3.3.
type DDFlags uint8

// Possible DDFlags values.
const (
	MSBit DDFlags = 1 << 0 // Master/Slave.
	MBit  DDFlags = 1 << 1 // More.
	IBit  DDFlags = 1 << 2 // Init.
)

// String returns the string representation of a DDFlags bitmask.
func (f DDFlags) String() string {
	return flagsString(uint(f), []string{
		"MS-bit",
		"M-bit",
		"I-bit",
	})
}

var _ Message = &DatabaseDescription{}

// A DatabaseDescription is an OSPFv2 Database Description packet as
// described in RFC 2328, appendix A.3.3. This probe never advertises its own
// link state database, so outgoing DatabaseDescription values always carry
// an empty LSAs slice, and every reply after the ExStart negotiation packet
// (which carries I and M) has Flags.MBit cleared.
type DatabaseDescription struct {
	Header         Header
	InterfaceMTU   uint16
	Options        Options
	Flags          DDFlags
	SequenceNumber uint32
	LSAs           []LSAHeader
}

// len implements Message.
func (dd *DatabaseDescription) len() int {
	return headerLen + ddLen + (lsaHeaderLen * len(dd.LSAs))
}

// marshal implements Message.
func (dd *DatabaseDescription) marshal(b []byte) error {
	const n = headerLen
	dd.Header.marshal(b[:n], databaseDescription, uint16(dd.len()))

	binary.BigEndian.PutUint16(b[n:n+2], dd.InterfaceMTU)
	b[n+2] = byte(dd.Options)
	b[n+3] = byte(dd.Flags)
	binary.BigEndian.PutUint32(b[n+4:n+8], dd.SequenceNumber)

	nn := n + ddLen
	for i := range dd.LSAs {
		dd.LSAs[i].marshal(b[nn : nn+lsaHeaderLen])
		nn += lsaHeaderLen
	}

	return nil
}

// unmarshal implements Message.
func (dd *DatabaseDescription) unmarshal(b []byte) error {
	if l := len(b); l < ddLen {
		return fmt.Errorf("not enough bytes for DatabaseDescription: %d: %w", l, errParse)
	}

	dd.InterfaceMTU = binary.BigEndian.Uint16(b[0:2])
	dd.Options = Options(b[2])
	dd.Flags = DDFlags(b[3])
	dd.SequenceNumber = binary.BigEndian.Uint32(b[4:8])

	rest := b[ddLen:]
	if l := len(rest); l%lsaHeaderLen != 0 {
		return fmt.Errorf("DatabaseDescription message must end on a 20 byte boundary for trailing LSA headers, got %d bytes: %w", l, errParse)
	}

	n := len(rest) / lsaHeaderLen
	dd.LSAs = make([]LSAHeader, 0, n)
	for i := 0; i < n; i++ {
		start := i * lsaHeaderLen
		end := start + lsaHeaderLen
		dd.LSAs = append(dd.LSAs, parseLSAHeader(rest[start:end]))
	}

	return nil
}
