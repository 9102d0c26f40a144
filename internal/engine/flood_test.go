package engine

import (
	"encoding/binary"
	"testing"
	"time"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

// checksummedRouterLSA builds a RouterLSA header-only LSA with a valid
// Fletcher checksum and its Raw wire bytes populated, the way one would
// arrive off the wire in a LinkStateUpdate. Production code never
// originates LSAs, so this checksum placement logic lives only in the test
// fixture builder, mirroring ospf2's own placeFletcherChecksum test helper.
func checksummedRouterLSA(linkStateID ospf2.ID, seq uint32, age time.Duration) ospf2.LSA {
	b := make([]byte, 20)
	binary.BigEndian.PutUint16(b[0:2], uint16(age/time.Second))
	b[3] = byte(ospf2.RouterLSA)
	copy(b[4:8], linkStateID[:])
	copy(b[8:12], []byte{10, 0, 0, 1})
	binary.BigEndian.PutUint32(b[12:16], seq)
	binary.BigEndian.PutUint16(b[18:20], 20)

	x, y := placeFletcherChecksum(b[2:], 14)
	b[16], b[17] = x, y

	hdr := ospf2.LSAHeader{
		Type:              ospf2.RouterLSA,
		LinkStateID:       linkStateID,
		AdvertisingRouter: ospf2.ID{10, 0, 0, 1},
		SequenceNumber:    seq,
		Age:               age,
		Checksum:          uint16(x)<<8 | uint16(y),
		Length:            20,
	}

	return ospf2.LSA{Header: hdr, Raw: b}
}

// placeFletcherChecksum computes the two checksum bytes to insert at
// checksumOffset within data (which must already have those two bytes
// zeroed) such that recomputing the Fletcher checksum over the whole buffer
// yields zero, per RFC 1008.
func placeFletcherChecksum(data []byte, checksumOffset int) (x, y byte) {
	var c0, c1 int
	for _, b := range data {
		c0 = (c0 + int(b)) % 255
		c1 = (c1 + c0) % 255
	}

	mul := len(data) - checksumOffset - 1
	xv := (mul*c0 - c1) % 255
	if xv <= 0 {
		xv += 255
	}
	yv := 510 - c0 - xv
	if yv > 255 {
		yv -= 255
	}

	return byte(xv), byte(yv)
}

func TestAcceptLSUInstallsNewerInstance(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	lsa := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{lsa}}

	res := AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, time.Now())
	if len(res.Installed) != 1 {
		t.Fatalf("len(Installed) = %d, want 1", len(res.Installed))
	}
	if len(res.Ack) != 1 {
		t.Fatalf("len(Ack) = %d, want 1", len(res.Ack))
	}
	if _, ok := lsdb.Lookup(lsa.Header.Key(lsdb.AreaID())); !ok {
		t.Fatal("installed LSA should be present in the LSDB")
	}
}

func TestAcceptLSUDropsInvalidChecksum(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	lsa := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	lsa.Raw[17] ^= 0xff // corrupt the checksum
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{lsa}}

	res := AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, time.Now())
	if len(res.Installed) != 0 || len(res.Ack) != 0 {
		t.Fatalf("a corrupted LSA should be silently dropped, got %+v", res)
	}
}

func TestAcceptLSUHonorsMinLSArrival(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	now := time.Now()
	first := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	lsdb.Install(first, now)

	second := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber+1, 0)
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{second}}

	res := AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, now.Add(500*time.Millisecond))
	if len(res.Installed) != 0 || len(res.Ack) != 0 {
		t.Fatalf("a newer instance arriving within MinLSArrival should be discarded without ack, got %+v", res)
	}
}

func TestAcceptLSUDuplicateInstanceIsAcknowledgedNotReinstalled(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	now := time.Now()
	lsa := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	lsdb.Install(lsa, now.Add(-2*time.Second))

	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{lsa}}
	res := AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, now)

	if len(res.Installed) != 0 {
		t.Fatalf("a duplicate instance should not be re-installed, got %+v", res.Installed)
	}
	if len(res.Ack) != 1 {
		t.Fatalf("a duplicate instance should still be acknowledged, got %+v", res.Ack)
	}
}

func TestAcceptLSUDeletesOnMaxAgeDeviation(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	now := time.Now()
	existing := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	lsdb.Install(existing, now.Add(-2*time.Second))

	maxAged := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber+1, ospf2.MaxAge)
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{maxAged}}

	res := AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, now)
	if len(res.Deleted) != 1 {
		t.Fatalf("a superseding MaxAge instance should delete the stored entry (deviation from RFC 2328), got %+v", res)
	}
	if _, ok := lsdb.Lookup(existing.Header.Key(lsdb.AreaID())); ok {
		t.Fatal("LSDB should no longer hold the entry after the MaxAge delete deviation")
	}
}

func TestAcceptLSURejectsDisallowedLSType(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	lsa := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	lsa.Header.Type = ospf2.LSType(99)
	lsa.Raw[3] = 99
	lsa.Raw[16], lsa.Raw[17] = 0, 0
	lsa.Raw[16], lsa.Raw[17] = placeFletcherChecksum(lsa.Raw[2:], 14)
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{lsa}}

	res := AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, time.Now())
	if len(res.Installed) != 0 || len(res.Ack) != 0 {
		t.Fatalf("an LSA of an unrecognized type should be dropped, got %+v", res)
	}
}

func TestAcceptLSURejectsExternalInStubArea(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	lsa := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	lsa.Header.Type = ospf2.ASExternalLSA
	lsa.Raw[3] = byte(ospf2.ASExternalLSA)
	lsa.Raw[16], lsa.Raw[17] = 0, 0
	lsa.Raw[16], lsa.Raw[17] = placeFletcherChecksum(lsa.Raw[2:], 14)
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{lsa}}

	res := AcceptLSU(f, lsdb, stats, InterfaceParams{StubArea: true}, u, time.Now())
	if len(res.Installed) != 0 || len(res.Ack) != 0 {
		t.Fatalf("a type-5 LSA should be dropped in a stub area, got %+v", res)
	}
}

func TestAcceptLSUAcksUnknownMaxAgeWithoutInstalling(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	maxAged := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, ospf2.MaxAge)
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{maxAged}}

	res := AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, time.Now())
	if len(res.Installed) != 0 {
		t.Fatalf("an unknown MaxAge instance must never be installed, got %+v", res.Installed)
	}
	if len(res.Ack) != 1 {
		t.Fatalf("an unknown MaxAge instance should still be acknowledged, got %+v", res.Ack)
	}
	if _, ok := lsdb.Lookup(maxAged.Header.Key(lsdb.AreaID())); ok {
		t.Fatal("an unknown MaxAge instance must not end up in the LSDB")
	}
}

func TestAcceptLSUFiresBadLSReqWhenStaleKeyPending(t *testing.T) {
	lsdb := NewLSDB(ospf2.ID{})
	stats := NewStats()
	f := NewNeighborFSM(ospf2.ID{10, 0, 0, 1}, time.Hour, lsdb)

	now := time.Now()
	newer := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber+1, 0)
	lsdb.Install(newer, now.Add(-10*time.Second))

	key := newer.Header.Key(lsdb.AreaID())
	f.linkStateRequestList = append(f.linkStateRequestList, key)
	f.state = NbrExchange

	stale := checksummedRouterLSA(ospf2.ID{10, 0, 0, 1}, ospf2.InitialSequenceNumber, 0)
	u := &ospf2.LinkStateUpdate{LSAs: []ospf2.LSA{stale}}

	AcceptLSU(f, lsdb, stats, InterfaceParams{}, u, now)
	if got := f.State(); got != NbrExStart {
		t.Fatalf("State() = %v, want NbrExStart after BadLSReq", got)
	}
}

func TestGenLSAckBatchesAtMax(t *testing.T) {
	headers := make([]ospf2.LSAHeader, maxLSAckPerPacket+1)
	for i := range headers {
		headers[i] = ospf2.LSAHeader{Type: ospf2.RouterLSA, LinkStateID: ospf2.ID{10, 0, 0, byte(i)}}
	}

	packets := GenLSAck(headers)
	if len(packets) != 2 {
		t.Fatalf("len(packets) = %d, want 2", len(packets))
	}
	if len(packets[0].LSAs) != maxLSAckPerPacket {
		t.Fatalf("len(packets[0].LSAs) = %d, want %d", len(packets[0].LSAs), maxLSAckPerPacket)
	}
}

func TestFloodQueueRunsJobsInOrder(t *testing.T) {
	q := NewFloodQueue()
	defer q.Close()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		i := i
		q.Submit(func() {
			order = append(order, i)
			if i == 9 {
				close(done)
			}
		})
	}
	<-done

	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d: FloodQueue must process jobs strictly in submission order", i, v, i)
		}
	}
}
