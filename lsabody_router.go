package ospf2

import (
	"encoding/binary"
	"fmt"
)

// RouterLinkType identifies the kind of a RouterLink, as described in RFC
// 2328, appendix A.4.2.
type RouterLinkType uint8

// Possible RouterLinkType values.
const (
	PointToPointLink RouterLinkType = 1
	TransitLink       RouterLinkType = 2
	StubLink          RouterLinkType = 3
	VirtualLink       RouterLinkType = 4
)

// RouterFlags are the bits in a RouterBody's flags byte.
type RouterFlags uint8

// Possible RouterFlags values.
const (
	VFlag RouterFlags = 1 << 2 // Virtual link endpoint.
	EFlag RouterFlags = 1 << 1 // ASBR.
	BFlag RouterFlags = 1 << 0 // ABR.
)

// A RouterLink is one link entry within a RouterBody.
type RouterLink struct {
	LinkID   ID
	LinkData ID
	Type     RouterLinkType
	Metric   uint16
}

var _ LSABody = &RouterBody{}

// A RouterBody is the body of a type-1 Router LSA, as described in RFC 2328,
// appendix A.4.2.
type RouterBody struct {
	Flags RouterFlags
	Links []RouterLink
}

func (r *RouterBody) len() int {
	return 4 + 12*len(r.Links)
}

func (r *RouterBody) marshal(b []byte) error {
	b[0] = byte(r.Flags)
	// b[1] reserved.
	binary.BigEndian.PutUint16(b[2:4], uint16(len(r.Links)))

	nn := 4
	for _, link := range r.Links {
		copy(b[nn:nn+4], link.LinkID[:])
		copy(b[nn+4:nn+8], link.LinkData[:])
		b[nn+8] = byte(link.Type)
		b[nn+9] = 0 // #TOS, always 0: this probe never originates TOS metrics.
		binary.BigEndian.PutUint16(b[nn+10:nn+12], link.Metric)
		nn += 12
	}

	return nil
}

func (r *RouterBody) unmarshal(b []byte) error {
	if len(b) < 4 {
		return fmt.Errorf("not enough bytes for RouterBody: %d: %w", len(b), errParse)
	}

	r.Flags = RouterFlags(b[0])
	n := int(binary.BigEndian.Uint16(b[2:4]))

	nn := 4
	r.Links = make([]RouterLink, 0, n)
	for i := 0; i < n; i++ {
		if nn+12 > len(b) {
			return fmt.Errorf("truncated router link %d: %w", i, errParse)
		}

		link := RouterLink{
			Type:   RouterLinkType(b[nn+8]),
			Metric: binary.BigEndian.Uint16(b[nn+10 : nn+12]),
		}
		copy(link.LinkID[:], b[nn:nn+4])
		copy(link.LinkData[:], b[nn+4:nn+8])
		r.Links = append(r.Links, link)

		// Skip any additional TOS metric blocks (4 bytes each) the
		// originator may have included; this probe does not model them.
		tos := int(b[nn+9])
		nn += 12 + 4*tos
	}

	return nil
}
