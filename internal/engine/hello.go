package engine

import (
	"errors"
	"time"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

// Errors returned by CheckHello, grounded on the acceptance ladder in
// pyospf/protocols/hello.py's check_hello.
var (
	ErrNetworkMaskMismatch        = errors.New("engine: Hello network mask does not match interface")
	ErrHelloIntervalMismatch      = errors.New("engine: Hello interval does not match interface")
	ErrRouterDeadIntervalMismatch = errors.New("engine: RouterDeadInterval does not match interface")
	ErrEBitMismatch               = errors.New("engine: Hello E-bit does not match area's stub/normal setting")
	ErrNPBitMismatch              = errors.New("engine: Hello NP-bit does not match area's NSSA setting")
)

// InterfaceParams holds the locally configured values a received Hello must
// agree with before it is accepted, RFC 2328 section 10.5, plus the values
// the flood and exchange procedures gate on for the same interface.
type InterfaceParams struct {
	NetworkMask        []byte
	HelloInterval      time.Duration
	RouterDeadInterval time.Duration
	MTU                uint16
	StubArea           bool
	NSSAArea           bool
	OpaqueCapable      bool
}

// CheckHello validates a received Hello against the interface it arrived
// on, grounded on pyospf/protocols/hello.py's check_hello. It never
// compares RouterPriority, Designated Router, or Backup Designated Router:
// this probe participates in none of that election.
func CheckHello(h *ospf2.Hello, p InterfaceParams) error {
	if len(h.NetworkMask) > 0 && len(p.NetworkMask) > 0 && !bytesEqual(h.NetworkMask, p.NetworkMask) {
		return ErrNetworkMaskMismatch
	}
	if h.HelloInterval != p.HelloInterval {
		return ErrHelloIntervalMismatch
	}
	if h.RouterDeadInterval != p.RouterDeadInterval {
		return ErrRouterDeadIntervalMismatch
	}
	if (h.Options&ospf2.EBit != 0) == p.StubArea {
		return ErrEBitMismatch
	}
	if (h.Options&ospf2.NPBit != 0) != p.NSSAArea {
		return ErrNPBitMismatch
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CheckActiveRouter reports which NbrEvent a received Hello implies for the
// neighbor relationship with selfID, grounded on
// pyospf/protocols/hello.py's check_active_router: NeighborEventTwoWayReceived
// if the Hello lists selfID among its neighbors, otherwise
// NeighborEventOneWay.
func CheckActiveRouter(h *ospf2.Hello, selfID ospf2.ID) NbrEvent {
	if h.HasNeighbor(selfID) {
		return NeighborEventTwoWayReceived
	}
	return NeighborEventOneWay
}
