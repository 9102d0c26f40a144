package engine

import (
	"sync"
	"time"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

// IfState is an OSPFv2 Interface State, RFC 2328 section 9.1. This probe is
// never the Designated Router or Backup Designated Router, so those two
// states are represented only for completeness of the enum and are never
// entered.
type IfState int

// Possible IfState values.
const (
	IfDown IfState = iota
	IfLoopback
	IfWaiting
	IfPointToPoint
	IfDROther
	IfBackup
	IfDR
)

func (s IfState) String() string {
	switch s {
	case IfDown:
		return "Down"
	case IfLoopback:
		return "Loopback"
	case IfWaiting:
		return "Waiting"
	case IfPointToPoint:
		return "Point-to-Point"
	case IfDROther:
		return "DROther"
	case IfBackup:
		return "Backup"
	case IfDR:
		return "DR"
	default:
		return "Unknown"
	}
}

// IfEvent is an event that drives the Interface State Machine, RFC 2328
// section 9.2.
type IfEvent int

// Possible IfEvent values.
const (
	EventInterfaceUp IfEvent = iota
	EventWaitTimer
	EventBackupSeen
	EventNeighborChange
	EventLoopInd
	EventUnloopInd
	EventInterfaceDown
)

// InterfaceFSM is the probe's Interface State Machine, grounded on
// pyospf/core/interfaceStateMachine.py. The probe runs a single interface in
// a single area, so unlike the Python original's per-area interface list,
// InterfaceFSM owns exactly one LSDB and one neighbor relationship.
type InterfaceFSM struct {
	mu    sync.Mutex
	state IfState

	lsdb     *LSDB
	neighbor *NeighborFSM

	waitTimer  *Timer
	helloTimer *Timer
	ageTimer   *Timer

	helloInterval      time.Duration
	routerDeadInterval time.Duration

	sendHello func()

	// drID and bdrID record the Designated Router and Backup Designated
	// Router identity as learned from the neighbor's Hellos; see
	// LearnDRBDR. They feed the outgoing Hello this probe sends and the
	// neighbor's AdjOK? decision in nsm.go.
	drID, bdrID ospf2.ID
}

// NewInterfaceFSM creates an InterfaceFSM in state Down.
func NewInterfaceFSM(lsdb *LSDB, helloInterval, routerDeadInterval time.Duration, sendHello func()) *InterfaceFSM {
	return &InterfaceFSM{
		state:              IfDown,
		lsdb:               lsdb,
		helloInterval:      helloInterval,
		routerDeadInterval: routerDeadInterval,
		sendHello:          sendHello,
	}
}

// State returns the current Interface State.
func (f *InterfaceFSM) State() IfState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Neighbor returns the FSM's single neighbor relationship, or nil if none
// has been created yet.
func (f *InterfaceFSM) Neighbor() *NeighborFSM {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.neighbor
}

// SetNeighbor installs the FSM's single neighbor relationship.
func (f *InterfaceFSM) SetNeighbor(n *NeighborFSM) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.neighbor = n
}

// IsPointToPoint reports whether the interface should skip the Waiting
// state entirely, per the link-type check EventInterfaceUp makes.
func (f *InterfaceFSM) IsPointToPoint() bool {
	return f.isPointToPoint()
}

// DRBDR returns the Designated Router and Backup Designated Router
// identity last learned from the neighbor's Hellos, or the zero ID for
// either that has not yet been observed.
func (f *InterfaceFSM) DRBDR() (dr, bdr ospf2.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drID, f.bdrID
}

// LearnDRBDR updates the interface's tracked DR/BDR identity from a Hello
// received from a neighbor already at 2-Way or later, grounded on
// pyospf/protocols/hello.py's get_dr_bdr. A Hello's Designated Router or
// Backup Designated Router field is only trusted once it is corroborated
// by the packet's own source address: srcID must match whichever of the
// two fields it is meant to confirm, since a router can only speak
// authoritatively about its own role. This probe never elects or contends
// for DR/BDR itself; it only observes what its neighbor claims.
func (f *InterfaceFSM) LearnDRBDR(nbr *NeighborFSM, h *ospf2.Hello, srcID ospf2.ID) {
	if nbr.State() < NbrTwoWay {
		return
	}
	if h.DesignatedRouterID != srcID && h.BackupDesignatedRouterID != srcID {
		return
	}

	f.mu.Lock()
	if f.drID == h.DesignatedRouterID && f.bdrID == h.BackupDesignatedRouterID {
		f.mu.Unlock()
		return
	}
	f.drID, f.bdrID = h.DesignatedRouterID, h.BackupDesignatedRouterID
	f.mu.Unlock()

	nbr.setNeighborIsDRorBDR(srcID == f.drID || srcID == f.bdrID)
	f.Dispatch(EventBackupSeen)
	// Re-evaluate AdjOK? now that the neighbor's DR/BDR status changed: a
	// neighbor stalled at 2-Way because it was neither DR nor BDR should
	// proceed to ExStart the moment that becomes true.
	nbr.Dispatch(NeighborEventAdjOK)
}

// Dispatch drives the state machine with event, per the transition table in
// RFC 2328 section 9.3. The probe only ever reaches Down, Loopback, Waiting,
// Point-to-Point, and DROther: it never wins a DR/BDR election, so the
// Backup and DR branches of the table are unreachable and not implemented.
func (f *InterfaceFSM) Dispatch(event IfEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch event {
	case EventInterfaceUp:
		if f.state != IfDown {
			return
		}
		f.startHelloTimer()
		f.startAgeTimer()
		if f.isPointToPoint() {
			f.state = IfPointToPoint
			return
		}
		f.state = IfWaiting
		f.startWaitTimer()

	case EventWaitTimer:
		if f.state != IfWaiting {
			return
		}
		// This probe has RouterPriority 0 and never contends for DR/BDR, so
		// it always settles into DROther once the wait timer fires.
		f.state = IfDROther

	case EventBackupSeen:
		if f.state != IfWaiting {
			return
		}
		f.state = IfDROther

	case EventNeighborChange:
		// A neighbor change never moves this probe between
		// DROther/Backup/DR: DR/BDR election is not modeled, since this
		// probe always runs at RouterPriority 0 and never contends.
		// Learning the neighbor's own DR/BDR identity from its Hellos is a
		// separate concern, handled by LearnDRBDR.

	case EventLoopInd:
		f.stopHelloTimer()
		f.stopAgeTimer()
		f.state = IfLoopback

	case EventUnloopInd:
		if f.state != IfLoopback {
			return
		}
		f.state = IfDown

	case EventInterfaceDown:
		f.stopWaitTimer()
		f.stopHelloTimer()
		f.stopAgeTimer()
		if f.neighbor != nil {
			f.neighbor.Dispatch(NeighborEventKillNbr)
		}
		f.lsdb.Empty()
		f.state = IfDown
	}
}

// isPointToPoint reports whether the interface should skip the Waiting
// state entirely. The probe never runs on a genuinely point-to-point link
// type in this implementation, but the branch is kept to mirror RFC 2328's
// transition table and the Python original's interface_type check.
func (f *InterfaceFSM) isPointToPoint() bool {
	return false
}

func (f *InterfaceFSM) startHelloTimer() {
	if f.sendHello == nil {
		return
	}
	f.helloTimer = NewTimer(f.helloInterval, func() {
		f.sendHello()
		f.mu.Lock()
		t := f.helloTimer
		f.mu.Unlock()
		if t != nil {
			t.Reset(f.helloInterval)
		}
	})
}

func (f *InterfaceFSM) stopHelloTimer() {
	if f.helloTimer != nil {
		f.helloTimer.Stop()
	}
}

func (f *InterfaceFSM) startWaitTimer() {
	f.waitTimer = NewTimer(f.routerDeadInterval, func() {
		f.Dispatch(EventWaitTimer)
	})
}

func (f *InterfaceFSM) stopWaitTimer() {
	if f.waitTimer != nil {
		f.waitTimer.Stop()
	}
}

// startAgeTimer starts the LSDB's one-second age sweep, grounded on
// pyospf/core/interfaceStateMachine.py's per-second aging loop.
func (f *InterfaceFSM) startAgeTimer() {
	var tick func()
	tick = func() {
		f.lsdb.AgeSweep(1 * time.Second)
		f.mu.Lock()
		t := f.ageTimer
		f.mu.Unlock()
		if t != nil {
			t.Reset(1 * time.Second)
		}
	}
	f.ageTimer = NewTimer(1*time.Second, tick)
}

func (f *InterfaceFSM) stopAgeTimer() {
	if f.ageTimer != nil {
		f.ageTimer.Stop()
	}
}
