package engine

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"

	ospf2 "github.com/ospfprobe/ospfprobe"
	"github.com/ospfprobe/ospfprobe/internal/socket"
)

// Receiver demultiplexes incoming OSPFv2 packets on a single interface and
// drives the Interface and Neighbor state machines, grounded on
// pyospf/core/ospfReceiver.py's ospf_handler.
type Receiver struct {
	conn      *socket.Conn
	ifFSM     *InterfaceFSM
	lsdb      *LSDB
	stats     *Stats
	queue     *FloodQueue
	log       zerolog.Logger
	startTime time.Time

	SelfID ospf2.ID
	AreaID ospf2.ID
	Params InterfaceParams
}

// NewReceiver creates a Receiver bound to conn.
func NewReceiver(conn *socket.Conn, ifFSM *InterfaceFSM, lsdb *LSDB, stats *Stats, selfID, areaID ospf2.ID, params InterfaceParams, log zerolog.Logger) *Receiver {
	return &Receiver{
		conn:      conn,
		ifFSM:     ifFSM,
		lsdb:      lsdb,
		stats:     stats,
		queue:     NewFloodQueue(),
		log:       log,
		startTime: time.Now(),
		SelfID:    selfID,
		AreaID:    areaID,
		Params:    params,
	}
}

// LSDB returns the probe's link state database.
func (r *Receiver) LSDB() *LSDB { return r.lsdb }

// Stats returns the probe's packet and LSDB counters.
func (r *Receiver) Stats() *Stats { return r.stats }

// RouterID returns the probe's own configured router ID.
func (r *Receiver) RouterID() ospf2.ID { return r.SelfID }

// StartTime returns when the Receiver was created.
func (r *Receiver) StartTime() time.Time { return r.startTime }

// SetInterfaceFSM attaches the Interface State Machine the Receiver
// dispatches Hello and neighbor events against. Callers constructing a
// Receiver and an InterfaceFSM with a mutual reference to each other (the
// FSM's hello timer calls back into Receiver.SendHello) create the Receiver
// first with a nil FSM, build the FSM from its SendHello method, then wire
// it in with this setter.
func (r *Receiver) SetInterfaceFSM(ifFSM *InterfaceFSM) {
	r.ifFSM = ifFSM
}

// Run reads packets from conn until ctx is canceled, dispatching each one to
// the single worker queue so LSDB mutations stay strictly ordered.
func (r *Receiver) Run(ctx context.Context) error {
	defer r.queue.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		b, cm, src, err := r.conn.ReadFrom()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		r.stats.bump(&r.stats.TotalReceivedPackets)

		r.queue.Submit(func() {
			r.handle(b, cm, src)
		})
	}
}

// handle parses and dispatches a single received packet. Packets addressed
// to AllDRouters are dropped unconditionally, matching
// pyospf/core/ospfReceiver.py's ospf_handler: this probe never becomes DR or
// BDR, so it has no business accepting traffic sent to that group.
func (r *Receiver) handle(b []byte, cm *ipv4.ControlMessage, src *net.IPAddr) {
	if cm != nil && cm.Dst != nil && cm.Dst.Equal(socket.AllDRouters.IP) {
		r.stats.bump(&r.stats.DroppedPacketCount)
		return
	}

	m, err := ospf2.ParseMessage(b)
	if err != nil {
		r.log.Debug().Err(err).Str("src", src.String()).Msg("failed to parse OSPF packet")
		r.stats.bump(&r.stats.DroppedPacketCount)
		return
	}

	switch v := m.(type) {
	case *ospf2.Hello:
		r.stats.bump(&r.stats.ReceivedHelloCount)
		r.handleHello(v, src)
	case *ospf2.DatabaseDescription:
		r.stats.bump(&r.stats.ReceivedDDCount)
		r.handleDD(v, src)
	case *ospf2.LinkStateRequest:
		r.stats.bump(&r.stats.ReceivedLSRCount)
		// Never honored: see ospf2.LinkStateRequest's doc comment.
		CheckLSR(v)
	case *ospf2.LinkStateUpdate:
		r.stats.bump(&r.stats.ReceivedLSUCount)
		r.handleLSU(v, src)
	case *ospf2.LinkStateAcknowledgement:
		r.stats.bump(&r.stats.ReceivedLSAckCount)
		r.handleLSAck(v)
	}

	r.stats.bump(&r.stats.TotalHandledPackets)
}

func (r *Receiver) handleHello(h *ospf2.Hello, src *net.IPAddr) {
	if err := CheckHello(h, r.Params); err != nil {
		r.log.Debug().Err(err).Str("src", src.String()).Msg("rejected Hello")
		r.stats.bump(&r.stats.DroppedPacketCount)
		return
	}

	nbr := r.ifFSM.Neighbor()
	if nbr == nil {
		nbr = NewNeighborFSM(h.Header.RouterID, r.Params.RouterDeadInterval, r.lsdb)
		nbr.SetPointToPoint(r.ifFSM.IsPointToPoint())
		r.ifFSM.SetNeighbor(nbr)
	}

	nbr.Dispatch(NeighborEventHelloReceived)
	nbr.Dispatch(CheckActiveRouter(h, r.SelfID))
	r.ifFSM.LearnDRBDR(nbr, h, ospf2.IDFromIP(src.IP))
}

func (r *Receiver) handleDD(dd *ospf2.DatabaseDescription, src *net.IPAddr) {
	nbr := r.ifFSM.Neighbor()
	if nbr == nil {
		return
	}

	switch nbr.State() {
	case NbrDown, NbrAttempt:
		// No adjacency has even been attempted yet; RFC 2328 section 10.6
		// has nothing to do with a DD received this early.

	case NbrInit:
		// A DD can only have reached us from a neighbor that already
		// considers itself 2-Way with us, grounded on exchange.py's
		// check_dd: receiving one while we are still at Init means our own
		// Hello processing lagged behind, so force the transition rather
		// than drop the packet on the floor.
		nbr.Dispatch(NeighborEventTwoWayReceived)

	case NbrTwoWay:
		// AdjOK? decided against becoming adjacent; a DD arriving here is
		// ignored, exchange.py's check_dd NSM_TwoWay branch.

	case NbrExStart:
		reply, event := NegotiateDD(nbr, r.SelfID, r.Params, dd)
		if event < 0 {
			return
		}
		nbr.Dispatch(event)
		reply.Header = r.header()
		r.send(reply, src)

	case NbrExchange:
		reply, event, err := CheckDD(nbr, r.lsdb, r.Params, dd)
		if err != nil {
			r.log.Debug().Err(err).Msg("DD rejected")
			if event >= 0 {
				nbr.Dispatch(event)
			}
			return
		}
		reply.Header = r.header()
		r.send(reply, src)
		if event >= 0 {
			nbr.Dispatch(event)
			for _, req := range GenLSR(nbr) {
				req.Header = r.header()
				r.send(req, src)
				r.stats.bump(&r.stats.SentLSRCount)
			}
		}

	case NbrLoading, NbrFull:
		reply, event, err := CheckLoadingDD(nbr, r.Params, dd)
		if err != nil {
			r.log.Debug().Err(err).Msg("DD rejected")
			if event >= 0 {
				nbr.Dispatch(event)
			}
			return
		}
		if reply != nil {
			reply.Header = r.header()
			r.send(reply, src)
		}
		if event >= 0 {
			nbr.Dispatch(event)
		}
	}
}

func (r *Receiver) handleLSU(u *ospf2.LinkStateUpdate, src *net.IPAddr) {
	nbr := r.ifFSM.Neighbor()
	if nbr == nil || nbr.State() < NbrExchange {
		return
	}

	res := AcceptLSU(nbr, r.lsdb, r.stats, r.Params, u, time.Now())
	for _, ack := range GenLSAck(res.Ack) {
		ack.Header = r.header()
		r.send(ack, src)
		r.stats.bump(&r.stats.SentLSAckCount)
	}

	if nbr.State() == NbrLoading && len(nbr.linkStateRequestList) == 0 {
		nbr.Dispatch(NeighborEventLoadingDone)
	}
}

// handleLSAck acknowledges receipt of LSAcks. This probe never originates or
// retransmits LSAs of its own, so it keeps no outgoing retransmission list
// for an LSAck to drain; nothing else reacts to the event.
func (r *Receiver) handleLSAck(a *ospf2.LinkStateAcknowledgement) {}

// header builds the outgoing packet Header common to every packet type this
// probe sends.
func (r *Receiver) header() ospf2.Header {
	return ospf2.Header{RouterID: r.SelfID, AreaID: r.AreaID}
}

func (r *Receiver) send(m ospf2.Message, dst *net.IPAddr) {
	b, err := ospf2.MarshalMessage(m)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to marshal outgoing OSPF packet")
		return
	}
	if err := r.conn.WriteTo(b, dst); err != nil {
		r.log.Warn().Err(err).Msg("failed to write outgoing OSPF packet")
	}
}

// SendHello builds and sends a Hello packet to AllSPFRouters, reporting the
// probe's single known neighbor (if any) in the neighbor list, grounded on
// pyospf/protocols/hello.py's gen_hello.
func (r *Receiver) SendHello() {
	dr, bdr := r.ifFSM.DRBDR()
	h := &ospf2.Hello{
		Header:                   r.header(),
		NetworkMask:              net.IPMask(r.Params.NetworkMask),
		HelloInterval:            r.Params.HelloInterval,
		RouterPriority:           0,
		RouterDeadInterval:       r.Params.RouterDeadInterval,
		DesignatedRouterID:       dr,
		BackupDesignatedRouterID: bdr,
	}
	if nbr := r.ifFSM.Neighbor(); nbr != nil && nbr.State() >= NbrInit {
		h.NeighborIDs = []ospf2.ID{nbr.RouterID}
	}

	r.send(h, socket.AllSPFRouters)
	r.stats.bump(&r.stats.SentHelloCount)
}
