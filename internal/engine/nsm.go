package engine

import (
	"sync"
	"time"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

// NbrState is an OSPFv2 Neighbor State, RFC 2328 section 10.1.
type NbrState int

// Possible NbrState values.
const (
	NbrDown NbrState = iota
	NbrAttempt
	NbrInit
	NbrTwoWay
	NbrExStart
	NbrExchange
	NbrLoading
	NbrFull
)

func (s NbrState) String() string {
	switch s {
	case NbrDown:
		return "Down"
	case NbrAttempt:
		return "Attempt"
	case NbrInit:
		return "Init"
	case NbrTwoWay:
		return "2-Way"
	case NbrExStart:
		return "ExStart"
	case NbrExchange:
		return "Exchange"
	case NbrLoading:
		return "Loading"
	case NbrFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// NbrEvent is an event that drives the Neighbor State Machine, RFC 2328
// section 10.2.
type NbrEvent int

// Possible NbrEvent values.
const (
	NeighborEventHelloReceived NbrEvent = iota
	NeighborEventTwoWayReceived
	NeighborEventOneWay
	NeighborEventNegotiationDone
	NeighborEventExchangeDone
	NeighborEventBadLSReq
	NeighborEventLoadingDone
	NeighborEventAdjOK
	NeighborEventSeqNumberMismatch
	NeighborEventKillNbr
	NeighborEventInactivityTimer
)

// NeighborFSM is the probe's Neighbor State Machine, grounded on
// pyospf/core/neighborStateMachine.py. The probe itself never becomes DR or
// BDR, but its neighbor still does; the AdjOK? decision of RFC 2328 section
// 10.4 depends on the link type and the neighbor's own DR/BDR status, not on
// this probe's (always-zero) RouterPriority.
type NeighborFSM struct {
	mu    sync.Mutex
	state NbrState

	RouterID ospf2.ID

	isMaster   bool
	ddSeqNum   uint32
	lastSentDD *ospf2.DatabaseDescription

	linkStateRequestList []ospf2.LSAKey

	inactivityInterval time.Duration
	deadTimer          *Timer

	lsdb *LSDB

	// isPointToPoint and neighborIsDRorBDR feed the AdjOK? decision of RFC
	// 2328 section 10.4: a 2-Way neighbor only proceeds to ExStart when the
	// link is point-to-point or the neighbor is itself DR or BDR. Both are
	// set via setters rather than the constructor so callers can learn them
	// after the neighbor already exists (point-to-point is a static link
	// property; DR/BDR identity is learned from Hellos as they arrive).
	isPointToPoint    bool
	neighborIsDRorBDR bool
}

// NewNeighborFSM creates a NeighborFSM in state Down for the neighbor
// identified by routerID.
func NewNeighborFSM(routerID ospf2.ID, inactivityInterval time.Duration, lsdb *LSDB) *NeighborFSM {
	return &NeighborFSM{
		state:              NbrDown,
		RouterID:           routerID,
		inactivityInterval: inactivityInterval,
		lsdb:               lsdb,
	}
}

// State returns the current Neighbor State.
func (f *NeighborFSM) State() NbrState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsMaster reports whether this probe is the master of the DD exchange,
// valid only once negotiation has completed (state ExStart or later).
func (f *NeighborFSM) IsMaster() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isMaster
}

// SetPointToPoint records whether the neighbor is reached over a
// point-to-point link, which exempts it from the DR/BDR requirement in the
// AdjOK? decision below.
func (f *NeighborFSM) SetPointToPoint(pointToPoint bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isPointToPoint = pointToPoint
}

// setNeighborIsDRorBDR records whether the neighbor is currently the
// Designated Router or Backup Designated Router, as learned from its
// Hellos by InterfaceFSM.LearnDRBDR.
func (f *NeighborFSM) setNeighborIsDRorBDR(isDRorBDR bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.neighborIsDRorBDR = isDRorBDR
}

// Dispatch drives the state machine with event, per the transition table in
// RFC 2328 section 10.3.
func (f *NeighborFSM) Dispatch(event NbrEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch event {
	case NeighborEventHelloReceived:
		f.resetInactivityTimer()
		if f.state == NbrDown {
			f.state = NbrInit
		}

	case NeighborEventTwoWayReceived:
		if f.state != NbrInit {
			return
		}
		f.state = NbrTwoWay
		// AdjOK?, RFC 2328 section 10.4: on a broadcast or NBMA network, two
		// routers become adjacent only if at least one of them is DR or
		// BDR. This probe's own RouterPriority is always 0 and it never
		// contends for the role, so the decision rests entirely on whether
		// the link is point-to-point or the neighbor itself is DR/BDR.
		if !f.isPointToPoint && !f.neighborIsDRorBDR {
			return
		}
		f.beginExStart()

	case NeighborEventOneWay:
		if f.state < NbrTwoWay {
			return
		}
		f.regressToInit()

	case NeighborEventAdjOK:
		if f.state != NbrTwoWay {
			return
		}
		if !f.isPointToPoint && !f.neighborIsDRorBDR {
			return
		}
		f.beginExStart()

	case NeighborEventNegotiationDone:
		if f.state != NbrExStart {
			return
		}
		// This probe never originates or re-advertises LSAs, so its own DD
		// summary is always empty; it still enters Exchange to receive and
		// request the neighbor's announced LSA headers.
		f.state = NbrExchange

	case NeighborEventExchangeDone:
		if f.state != NbrExchange {
			return
		}
		if len(f.linkStateRequestList) == 0 {
			f.state = NbrFull
			return
		}
		f.state = NbrLoading

	case NeighborEventBadLSReq:
		if f.state < NbrExchange {
			return
		}
		f.beginExStart()

	case NeighborEventLoadingDone:
		if f.state != NbrLoading {
			return
		}
		f.state = NbrFull

	case NeighborEventSeqNumberMismatch:
		if f.state < NbrExchange {
			return
		}
		f.beginExStart()

	case NeighborEventInactivityTimer, NeighborEventKillNbr:
		f.reset()
	}
}

// beginExStart resets DD exchange bookkeeping and enters ExStart, mirroring
// pyospf/core/neighborStateMachine.py's handling of the 2-WayReceived and
// AdjOK? transitions into negotiation.
func (f *NeighborFSM) beginExStart() {
	f.state = NbrExStart
	f.linkStateRequestList = nil
}

// regressToInit drops back to Init and discards all exchange state, as RFC
// 2328 section 10.3 requires on a 1-Way event from 2-Way or later.
func (f *NeighborFSM) regressToInit() {
	f.state = NbrInit
	f.linkStateRequestList = nil
}

// reset returns the neighbor to Down and empties the LSDB: with a single
// neighbor and a single area, losing the adjacency leaves nothing behind
// worth keeping, grounded on pyospf/core/ospfLsdb.py's empty_lsdb call from
// the KillNbr/inactivity paths.
func (f *NeighborFSM) reset() {
	f.state = NbrDown
	f.isMaster = false
	f.linkStateRequestList = nil
	if f.deadTimer != nil {
		f.deadTimer.Stop()
	}
	f.lsdb.Empty()
}

func (f *NeighborFSM) resetInactivityTimer() {
	if f.deadTimer == nil {
		f.deadTimer = NewTimer(f.inactivityInterval, func() {
			f.Dispatch(NeighborEventInactivityTimer)
		})
		return
	}
	f.deadTimer.Reset(f.inactivityInterval)
}
