// Package socket implements the raw IPv4 protocol-89 connection an OSPFv2
// probe reads and writes on.
package socket

import (
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

// Fixed IPv4 header parameters for Conn use, per RFC 2328 appendix A.1.
const (
	tos     = 0xc0 // Internetwork control.
	ttl     = 1
	ospfProto = 89
)

var (
	// AllSPFRouters is the IPv4 multicast group every OSPF router
	// participates in.
	AllSPFRouters = &net.IPAddr{IP: net.IPv4(224, 0, 0, 5)}

	// AllDRouters is the IPv4 multicast group only the Designated Router
	// and Backup Designated Router participate in. This probe never becomes
	// DR or BDR, so it recognizes the address (to drop packets addressed to
	// it) but never joins the group.
	AllDRouters = &net.IPAddr{IP: net.IPv4(224, 0, 0, 6)}
)

// A Conn sends and receives raw OSPFv2 packets on a single network
// interface.
type Conn struct {
	c      *ipv4.PacketConn
	ifi    *net.Interface
	groups []*net.IPAddr
}

// Listen creates a Conn bound to ifi, joining AllSPFRouters. AllDRouters is
// never joined: this probe never contends for DR/BDR, so packets destined
// to it are filtered, not received as multicast traffic.
func Listen(ifi *net.Interface) (*Conn, error) {
	conn, err := net.ListenPacket("ip4:89", "0.0.0.0")
	if err != nil {
		return nil, err
	}
	c := ipv4.NewPacketConn(conn)

	if err := c.SetControlMessage(^ipv4.ControlFlags(0), true); err != nil {
		return nil, err
	}
	if err := c.SetTTL(ttl); err != nil {
		return nil, err
	}
	if err := c.SetMulticastTTL(ttl); err != nil {
		return nil, err
	}
	if err := c.SetTOS(tos); err != nil {
		return nil, err
	}
	if err := c.SetMulticastInterface(ifi); err != nil {
		return nil, err
	}

	groups := []*net.IPAddr{AllSPFRouters}
	for _, g := range groups {
		if err := c.JoinGroup(ifi, g); err != nil {
			return nil, err
		}
	}

	// Don't read our own multicast packets back during concurrent
	// read/write.
	if err := c.SetMulticastLoopback(false); err != nil {
		return nil, err
	}

	return &Conn{c: c, ifi: ifi, groups: groups}, nil
}

// Close leaves any joined multicast groups and closes the Conn's underlying
// network connection.
func (c *Conn) Close() error {
	for _, g := range c.groups {
		if err := c.c.LeaveGroup(c.ifi, g); err != nil {
			return err
		}
	}
	return c.c.Close()
}

// SetReadDeadline sets the read deadline associated with the Conn.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.c.SetReadDeadline(t)
}

// ReadFrom reads a single raw OSPF packet's bytes along with its IPv4
// control message and source address. It performs no OSPF-level parsing;
// callers are expected to hand the bytes to ospf2.ParseMessage.
func (c *Conn) ReadFrom() ([]byte, *ipv4.ControlMessage, *net.IPAddr, error) {
	b := make([]byte, c.ifi.MTU)
	n, cm, src, err := c.c.ReadFrom(b)
	if err != nil {
		return nil, nil, nil, err
	}

	addr, ok := src.(*net.IPAddr)
	if !ok {
		addr = &net.IPAddr{IP: net.ParseIP(src.String())}
	}

	return b[:n], cm, addr, nil
}

// WriteTo writes raw OSPF packet bytes to the specified destination address
// or multicast group.
func (c *Conn) WriteTo(b []byte, dst *net.IPAddr) error {
	_, err := c.c.WriteTo(b, nil, dst)
	return err
}

// Interface returns the network interface the Conn is bound to.
func (c *Conn) Interface() *net.Interface {
	return c.ifi
}
