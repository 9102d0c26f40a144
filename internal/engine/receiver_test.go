package engine

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"

	ospf2 "github.com/ospfprobe/ospfprobe"
	"github.com/ospfprobe/ospfprobe/internal/socket"
)

func testReceiver(t *testing.T) *Receiver {
	t.Helper()

	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	params := InterfaceParams{
		NetworkMask:        []byte{255, 255, 255, 0},
		HelloInterval:      10 * time.Second,
		RouterDeadInterval: 40 * time.Second,
	}

	r := NewReceiver(nil, nil, lsdb, stats, ospf2.ID{10, 0, 0, 1}, ospf2.ID{}, params, zerolog.Nop())
	ifFSM := NewInterfaceFSM(lsdb, params.HelloInterval, params.RouterDeadInterval, func() {})
	r.SetInterfaceFSM(ifFSM)
	ifFSM.Dispatch(EventInterfaceUp)
	ifFSM.Dispatch(EventWaitTimer)

	return r
}

func TestReceiverHandleDropsAllDRoutersTraffic(t *testing.T) {
	r := testReceiver(t)
	cm := &ipv4.ControlMessage{Dst: socket.AllDRouters.IP}

	r.handle(nil, cm, &net.IPAddr{IP: net.IPv4(10, 0, 0, 2)})

	snap := r.Stats().Snapshot()
	if snap.DroppedPacketCount != 1 {
		t.Fatalf("DroppedPacketCount = %d, want 1", snap.DroppedPacketCount)
	}
	if snap.TotalHandledPackets != 0 {
		t.Fatalf("TotalHandledPackets = %d, want 0: packets to AllDRouters are dropped before dispatch", snap.TotalHandledPackets)
	}
}

func TestReceiverHandleDropsUnparsablePacket(t *testing.T) {
	r := testReceiver(t)

	r.handle([]byte{0xff, 0xff}, nil, &net.IPAddr{IP: net.IPv4(10, 0, 0, 2)})

	snap := r.Stats().Snapshot()
	if snap.DroppedPacketCount != 1 {
		t.Fatalf("DroppedPacketCount = %d, want 1", snap.DroppedPacketCount)
	}
}

func TestReceiverHandleHelloCreatesNeighborAndReachesTwoWay(t *testing.T) {
	r := testReceiver(t)
	src := &net.IPAddr{IP: net.IPv4(10, 0, 0, 2)}

	h := &ospf2.Hello{
		Header:             ospf2.Header{RouterID: ospf2.ID{10, 0, 0, 2}, AreaID: ospf2.ID{}},
		NetworkMask:        net.IPMask{255, 255, 255, 0},
		HelloInterval:      10 * time.Second,
		RouterDeadInterval: 40 * time.Second,
		Options:            ospf2.EBit,
		NeighborIDs:        []ospf2.ID{r.RouterID()},
	}
	b, err := ospf2.MarshalMessage(h)
	if err != nil {
		t.Fatalf("failed to marshal Hello: %v", err)
	}

	r.handle(b, nil, src)

	nbr := r.ifFSM.Neighbor()
	if nbr == nil {
		t.Fatal("handling a Hello should create the single neighbor relationship")
	}
	if nbr.RouterID != (ospf2.ID{10, 0, 0, 2}) {
		t.Fatalf("neighbor RouterID = %v, want 10.0.0.2", nbr.RouterID)
	}
	// This probe's test interface is not point-to-point and the Hello
	// doesn't corroborate a DR/BDR claim for its sender, so AdjOK? holds
	// the neighbor at 2-Way rather than proceeding to ExStart.
	if got := nbr.State(); got != NbrTwoWay {
		t.Fatalf("neighbor state = %v, want 2-Way: this Hello lists us but neither P2P nor DR/BDR applies", got)
	}

	snap := r.Stats().Snapshot()
	if snap.ReceivedHelloCount != 1 {
		t.Fatalf("ReceivedHelloCount = %d, want 1", snap.ReceivedHelloCount)
	}
	if snap.TotalHandledPackets != 1 {
		t.Fatalf("TotalHandledPackets = %d, want 1", snap.TotalHandledPackets)
	}
}

func TestReceiverHandleHelloReachesExStartWhenNeighborIsSelfDeclaredDR(t *testing.T) {
	r := testReceiver(t)
	src := &net.IPAddr{IP: net.IPv4(10, 0, 0, 2)}
	srcID := ospf2.ID{10, 0, 0, 2}

	h := &ospf2.Hello{
		Header:             ospf2.Header{RouterID: srcID, AreaID: ospf2.ID{}},
		NetworkMask:        net.IPMask{255, 255, 255, 0},
		HelloInterval:      10 * time.Second,
		RouterDeadInterval: 40 * time.Second,
		Options:            ospf2.EBit,
		NeighborIDs:        []ospf2.ID{r.RouterID()},
		DesignatedRouterID: srcID,
	}
	b, err := ospf2.MarshalMessage(h)
	if err != nil {
		t.Fatalf("failed to marshal Hello: %v", err)
	}

	r.handle(b, nil, src)

	nbr := r.ifFSM.Neighbor()
	if nbr == nil {
		t.Fatal("handling a Hello should create the single neighbor relationship")
	}
	if got := nbr.State(); got != NbrExStart {
		t.Fatalf("neighbor state = %v, want ExStart: the neighbor corroborated its own DR claim", got)
	}
}

func TestReceiverHandleHelloOneWayStaysAtInit(t *testing.T) {
	r := testReceiver(t)
	src := &net.IPAddr{IP: net.IPv4(10, 0, 0, 2)}

	h := &ospf2.Hello{
		Header:             ospf2.Header{RouterID: ospf2.ID{10, 0, 0, 2}},
		NetworkMask:        net.IPMask{255, 255, 255, 0},
		HelloInterval:      10 * time.Second,
		RouterDeadInterval: 40 * time.Second,
		Options:            ospf2.EBit,
	}
	b, err := ospf2.MarshalMessage(h)
	if err != nil {
		t.Fatalf("failed to marshal Hello: %v", err)
	}

	r.handle(b, nil, src)

	nbr := r.ifFSM.Neighbor()
	if nbr == nil {
		t.Fatal("even a one-way Hello should create the neighbor relationship")
	}
	if got := nbr.State(); got != NbrInit {
		t.Fatalf("neighbor state = %v, want Init: this Hello doesn't list us yet", got)
	}
}

func TestReceiverHandleHelloRejectsParamMismatch(t *testing.T) {
	r := testReceiver(t)
	src := &net.IPAddr{IP: net.IPv4(10, 0, 0, 2)}

	h := &ospf2.Hello{
		Header:             ospf2.Header{RouterID: ospf2.ID{10, 0, 0, 2}},
		NetworkMask:        net.IPMask{255, 255, 255, 0},
		HelloInterval:      999 * time.Second, // mismatched
		RouterDeadInterval: 40 * time.Second,
	}
	b, err := ospf2.MarshalMessage(h)
	if err != nil {
		t.Fatalf("failed to marshal Hello: %v", err)
	}

	r.handle(b, nil, src)

	if nbr := r.ifFSM.Neighbor(); nbr != nil {
		t.Fatal("a Hello failing CheckHello must not create a neighbor relationship")
	}
	if snap := r.Stats().Snapshot(); snap.DroppedPacketCount != 1 {
		t.Fatalf("DroppedPacketCount = %d, want 1", snap.DroppedPacketCount)
	}
}
