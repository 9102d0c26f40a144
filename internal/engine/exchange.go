package engine

import (
	"errors"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

// maxLSRPerPacket caps the number of RequestEntry values gen_lsr batches
// into a single LinkStateRequest, matching pyospf/protocols/exchange.py's
// LSR_MAX_LSA_PER_PACKET.
const maxLSRPerPacket = 100

// ErrBadDDSequence is returned when a received Database Description
// packet's sequence number does not match what RFC 2328 section 10.8
// requires for the neighbor's current exchange state.
var ErrBadDDSequence = errors.New("engine: Database Description sequence number mismatch")

// ErrMTUTooLarge is returned when a Database Description advertises an
// interface MTU larger than our own, grounded on exchange.py's check_dd:
// "if self.nsm.ism.mtu < mtu: deny", checked before any state-specific
// processing so the exchange never has to deal with fragments it couldn't
// reassemble.
var ErrMTUTooLarge = errors.New("engine: Database Description advertises an MTU larger than our interface")

// ErrType5InStubArea is returned when a Database Description's LSA headers
// include an AS-external LSA while the interface is configured for a stub
// area, grounded on exchange.py's _get_lsa: "check if a type-5 lsa into a
// stub area, return false".
var ErrType5InStubArea = errors.New("engine: Database Description carries a type-5 LSA header into a stub area")

// ErrUnexpectedInitBit is returned when a Database Description received
// while the neighbor is already in Loading or Full carries the Init bit,
// grounded on exchange.py's check_dd Loading/Full branch.
var ErrUnexpectedInitBit = errors.New("engine: Database Description carries an unexpected Init bit")

// NegotiateDD processes a Database Description received while the neighbor
// is in ExStart, grounded on pyospf/protocols/exchange.py's negotiation
// branch of check_dd. It decides master/slave per RFC 2328 section 10.8 and
// returns the reply to send along with the event the negotiation implies.
// A negative event means the packet should be silently ignored: either it
// isn't a negotiation packet, or its advertised MTU exceeds our own.
func NegotiateDD(f *NeighborFSM, selfID ospf2.ID, p InterfaceParams, dd *ospf2.DatabaseDescription) (*ospf2.DatabaseDescription, NbrEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dd.InterfaceMTU > p.MTU {
		return nil, -1
	}

	negotiationPacket := dd.Flags&(ospf2.IBit|ospf2.MBit|ospf2.MSBit) == (ospf2.IBit | ospf2.MBit | ospf2.MSBit)
	if !negotiationPacket {
		return nil, -1
	}

	weAreMaster := uint32From(selfID) > uint32From(f.RouterID)
	f.isMaster = weAreMaster

	reply := &ospf2.DatabaseDescription{Flags: ospf2.IBit | ospf2.MBit}
	if weAreMaster {
		reply.Flags |= ospf2.MSBit
		f.ddSeqNum++
		reply.SequenceNumber = f.ddSeqNum
	} else {
		// As slave, echo the master's sequence number and drop the MS bit,
		// RFC 2328 section 10.8 step 2.
		f.ddSeqNum = dd.SequenceNumber
		reply.SequenceNumber = dd.SequenceNumber
	}

	f.lastSentDD = reply
	return reply, NeighborEventNegotiationDone
}

func uint32From(id ospf2.ID) uint32 {
	return uint32(id[0])<<24 | uint32(id[1])<<16 | uint32(id[2])<<8 | uint32(id[3])
}

// CheckDD validates a Database Description received while the neighbor is
// in Exchange, grounded on pyospf/protocols/exchange.py's check_dd steady
// state branch. On success it merges any LSA headers the probe lacks, or
// holds an older instance of, into the neighbor's link state request list
// and returns the reply DD along with whatever event the exchange implies.
func CheckDD(f *NeighborFSM, lsdb *LSDB, p InterfaceParams, dd *ospf2.DatabaseDescription) (*ospf2.DatabaseDescription, NbrEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dd.InterfaceMTU > p.MTU {
		return nil, -1, ErrMTUTooLarge
	}

	if f.isMaster {
		if dd.SequenceNumber != f.ddSeqNum {
			return nil, NeighborEventSeqNumberMismatch, ErrBadDDSequence
		}
	} else {
		if dd.SequenceNumber != f.ddSeqNum+1 {
			return nil, NeighborEventSeqNumberMismatch, ErrBadDDSequence
		}
		f.ddSeqNum = dd.SequenceNumber
	}

	for _, hdr := range dd.LSAs {
		if hdr.Type == ospf2.ASExternalLSA && p.StubArea {
			// exchange.py's _get_lsa rejects a type-5 header outright when
			// the interface's own area is stub, gated on the local E-bit
			// setting rather than anything the neighbor advertised.
			return nil, NeighborEventSeqNumberMismatch, ErrType5InStubArea
		}

		key := hdr.Key(lsdb.AreaID())
		if existing, ok := lsdb.Lookup(key); !ok || InstanceOrder(hdr, existing.Header) > 0 {
			f.linkStateRequestList = append(f.linkStateRequestList, key)
		}
	}

	more := dd.Flags&ospf2.MBit != 0
	reply := &ospf2.DatabaseDescription{SequenceNumber: f.ddSeqNum}
	if f.isMaster {
		reply.Flags = ospf2.MSBit
		if more {
			f.ddSeqNum++
			reply.SequenceNumber = f.ddSeqNum
		}
	}
	// Our own DD summary list is always empty, so there is nothing further
	// of ours left to announce; MBit on our reply stays clear.

	f.lastSentDD = reply
	if !more {
		return reply, NeighborEventExchangeDone, nil
	}
	return reply, -1, nil
}

// CheckLoadingDD handles a Database Description received while the
// neighbor is already in Loading or Full, grounded on
// pyospf/protocols/exchange.py's check_dd Loading/Full branch: any further
// DD in these states can only be a duplicate retransmission of the final
// exchange-state packet. The master silently drops it, since it keeps no
// outgoing summary to retransmit; the slave re-sends its last reply.
func CheckLoadingDD(f *NeighborFSM, p InterfaceParams, dd *ospf2.DatabaseDescription) (*ospf2.DatabaseDescription, NbrEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if dd.InterfaceMTU > p.MTU {
		return nil, -1, ErrMTUTooLarge
	}
	if dd.Flags&ospf2.IBit != 0 {
		return nil, NeighborEventSeqNumberMismatch, ErrUnexpectedInitBit
	}
	if dd.SequenceNumber != f.ddSeqNum {
		return nil, NeighborEventSeqNumberMismatch, ErrBadDDSequence
	}
	if f.isMaster {
		return nil, -1, nil
	}
	if f.lastSentDD == nil {
		return nil, NeighborEventSeqNumberMismatch, ErrBadDDSequence
	}
	return f.lastSentDD, -1, nil
}

// hasPendingRequest reports whether key is still on the neighbor's
// outstanding link state request list.
func (f *NeighborFSM) hasPendingRequest(key ospf2.LSAKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, k := range f.linkStateRequestList {
		if k == key {
			return true
		}
	}
	return false
}

// GenLSR builds the LinkStateRequest packets that ask for every key on the
// neighbor's outstanding request list, batching at most maxLSRPerPacket
// entries per packet, grounded on pyospf/protocols/exchange.py's gen_lsr.
// The list itself is left in place; keys leave it through FulfillLSR as
// their LSAs arrive.
func GenLSR(f *NeighborFSM) []*ospf2.LinkStateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.linkStateRequestList) == 0 {
		return nil
	}

	var out []*ospf2.LinkStateRequest
	pending := f.linkStateRequestList
	for len(pending) > 0 {
		n := maxLSRPerPacket
		if n > len(pending) {
			n = len(pending)
		}
		batch := pending[:n]

		req := &ospf2.LinkStateRequest{Requests: make([]ospf2.RequestEntry, len(batch))}
		for i, key := range batch {
			req.Requests[i] = ospf2.RequestEntry{
				Type:              key.Type,
				LinkStateID:       key.LinkStateID,
				AdvertisingRouter: key.AdvertisingRouter,
			}
		}
		out = append(out, req)

		pending = pending[n:]
	}
	return out
}

// FulfillLSR removes key from the neighbor's outstanding request list once
// the corresponding LSA has arrived in a LinkStateUpdate, reporting whether
// the list is now empty.
func FulfillLSR(f *NeighborFSM, key ospf2.LSAKey) (drained bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, k := range f.linkStateRequestList {
		if k == key {
			f.linkStateRequestList = append(f.linkStateRequestList[:i], f.linkStateRequestList[i+1:]...)
			break
		}
	}
	return len(f.linkStateRequestList) == 0
}

// CheckLSR exists only to document a deliberate omission: this probe never
// honors a received LinkStateRequest, grounded on
// pyospf/protocols/exchange.py's check_lsr, which the original leaves as a
// no-op because the probe never has anything of its own to retransmit.
func CheckLSR(*ospf2.LinkStateRequest) {}
