package ospf2

import (
	"encoding/binary"
	"fmt"
)

var _ Message = &LinkStateUpdate{}

// A LinkStateUpdate is an OSPFv2 Link State Update packet as described in
// RFC 2328, appendix A.3.5. Unlike the other packet types, its trailing LSAs
// are not fixed-size, so the packet carries an explicit count.
type LinkStateUpdate struct {
	Header Header
	LSAs   []LSA
}

// len implements Message.
func (u *LinkStateUpdate) len() int {
	n := headerLen + 4
	for i := range u.LSAs {
		n += u.LSAs[i].len()
	}
	return n
}

// marshal implements Message.
func (u *LinkStateUpdate) marshal(b []byte) error {
	const n = headerLen
	u.Header.marshal(b[:n], linkStateUpdate, uint16(u.len()))
	binary.BigEndian.PutUint32(b[n:n+4], uint32(len(u.LSAs)))

	nn := n + 4
	for i := range u.LSAs {
		l := u.LSAs[i].len()
		if err := u.LSAs[i].marshal(b[nn : nn+l]); err != nil {
			return fmt.Errorf("failed to marshal LSA %d: %w", i, err)
		}
		nn += l
	}

	return nil
}

// unmarshal implements Message.
func (u *LinkStateUpdate) unmarshal(b []byte) error {
	if len(b) < 4 {
		return fmt.Errorf("not enough bytes for LinkStateUpdate: %d: %w", len(b), errParse)
	}

	count := int(binary.BigEndian.Uint32(b[0:4]))
	rest := b[4:]

	u.LSAs = make([]LSA, 0, count)
	for i := 0; i < count; i++ {
		if len(rest) < lsaHeaderLen {
			return fmt.Errorf("truncated LSA %d in LinkStateUpdate: %w", i, errParse)
		}

		// The header's own Length field tells us where this LSA ends; the
		// rest of the packet belongs to subsequent LSAs.
		l := int(binary.BigEndian.Uint16(rest[18:20]))
		if l < lsaHeaderLen || l > len(rest) {
			return fmt.Errorf("LSA %d has invalid length %d: %w", i, l, errParse)
		}

		lsa, err := parseLSA(rest[:l])
		if err != nil {
			return fmt.Errorf("failed to parse LSA %d: %w", i, err)
		}
		u.LSAs = append(u.LSAs, lsa)

		rest = rest[l:]
	}

	return nil
}
