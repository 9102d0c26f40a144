package engine

import (
	"errors"
	"testing"
	"time"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

func baseHello() *ospf2.Hello {
	return &ospf2.Hello{
		NetworkMask:        []byte{255, 255, 255, 0},
		HelloInterval:      10 * time.Second,
		RouterDeadInterval: 40 * time.Second,
		Options:            ospf2.EBit,
	}
}

func baseParams() InterfaceParams {
	return InterfaceParams{
		NetworkMask:        []byte{255, 255, 255, 0},
		HelloInterval:      10 * time.Second,
		RouterDeadInterval: 40 * time.Second,
	}
}

func TestCheckHelloAccepts(t *testing.T) {
	if err := CheckHello(baseHello(), baseParams()); err != nil {
		t.Fatalf("CheckHello() = %v, want nil", err)
	}
}

func TestCheckHelloRejectsNetworkMaskMismatch(t *testing.T) {
	h := baseHello()
	h.NetworkMask = []byte{255, 255, 0, 0}

	if err := CheckHello(h, baseParams()); !errors.Is(err, ErrNetworkMaskMismatch) {
		t.Fatalf("CheckHello() = %v, want ErrNetworkMaskMismatch", err)
	}
}

func TestCheckHelloRejectsHelloIntervalMismatch(t *testing.T) {
	h := baseHello()
	h.HelloInterval = 5 * time.Second

	if err := CheckHello(h, baseParams()); !errors.Is(err, ErrHelloIntervalMismatch) {
		t.Fatalf("CheckHello() = %v, want ErrHelloIntervalMismatch", err)
	}
}

func TestCheckHelloRejectsRouterDeadIntervalMismatch(t *testing.T) {
	h := baseHello()
	h.RouterDeadInterval = 20 * time.Second

	if err := CheckHello(h, baseParams()); !errors.Is(err, ErrRouterDeadIntervalMismatch) {
		t.Fatalf("CheckHello() = %v, want ErrRouterDeadIntervalMismatch", err)
	}
}

func TestCheckHelloRejectsEBitMismatch(t *testing.T) {
	h := baseHello()
	h.Options = ospf2.EBit

	p := baseParams()
	p.StubArea = true

	if err := CheckHello(h, p); !errors.Is(err, ErrEBitMismatch) {
		t.Fatalf("CheckHello() = %v, want ErrEBitMismatch", err)
	}
}

func TestCheckHelloRejectsNPBitMismatch(t *testing.T) {
	h := baseHello()
	h.Options |= ospf2.NPBit

	if err := CheckHello(h, baseParams()); !errors.Is(err, ErrNPBitMismatch) {
		t.Fatalf("CheckHello() = %v, want ErrNPBitMismatch", err)
	}
}

func TestCheckHelloAcceptsMatchingNSSAArea(t *testing.T) {
	h := baseHello()
	h.Options |= ospf2.NPBit

	p := baseParams()
	p.NSSAArea = true

	if err := CheckHello(h, p); err != nil {
		t.Fatalf("CheckHello() = %v, want nil when both sides agree on NSSA", err)
	}
}

func TestCheckActiveRouter(t *testing.T) {
	self := ospf2.ID{10, 0, 0, 1}
	h := baseHello()

	if got := CheckActiveRouter(h, self); got != NeighborEventOneWay {
		t.Fatalf("CheckActiveRouter() = %v, want OneWay when self is absent", got)
	}

	h.NeighborIDs = []ospf2.ID{self}
	if got := CheckActiveRouter(h, self); got != NeighborEventTwoWayReceived {
		t.Fatalf("CheckActiveRouter() = %v, want TwoWayReceived when self is listed", got)
	}
}
