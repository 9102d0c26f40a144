package ospf2

import (
	"fmt"
	"net"
)

var _ LSABody = &NetworkBody{}

// A NetworkBody is the body of a type-2 Network LSA, as described in RFC
// 2328, appendix A.4.3.
type NetworkBody struct {
	NetworkMask     net.IPMask
	AttachedRouters []ID
}

func (n *NetworkBody) len() int {
	return 4 + 4*len(n.AttachedRouters)
}

func (n *NetworkBody) marshal(b []byte) error {
	mask := n.NetworkMask
	if len(mask) != 4 {
		mask = net.IPMask{0, 0, 0, 0}
	}
	copy(b[0:4], mask)

	nn := 4
	for _, r := range n.AttachedRouters {
		copy(b[nn:nn+4], r[:])
		nn += 4
	}

	return nil
}

func (n *NetworkBody) unmarshal(b []byte) error {
	if len(b) < 4 {
		return fmt.Errorf("not enough bytes for NetworkBody: %d: %w", len(b), errParse)
	}
	if (len(b)-4)%4 != 0 {
		return fmt.Errorf("NetworkBody attached router list misaligned: %d: %w", len(b), errParse)
	}

	n.NetworkMask = net.IPMask(append([]byte(nil), b[0:4]...))

	rest := b[4:]
	n.AttachedRouters = make([]ID, 0, len(rest)/4)
	for i := 0; i+4 <= len(rest); i += 4 {
		n.AttachedRouters = append(n.AttachedRouters, idFrom(rest[i:i+4]))
	}

	return nil
}

// IDFromIP converts an IPv4 address into the dotted-decimal ID
// representation used throughout OSPFv2 for router, area, and link state
// identifiers.
func IDFromIP(ip net.IP) ID {
	v4 := ip.To4()
	var id ID
	copy(id[:], v4)
	return id
}
