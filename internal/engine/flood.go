package engine

import (
	"time"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

// maxLSAckPerPacket caps the number of LSA headers gen_lsack batches into a
// single LinkStateAcknowledgement, mirroring the same batching gen_lsr
// applies to LinkStateRequest.
const maxLSAckPerPacket = 100

// FloodResult reports what AcceptLSU did with each LSA in a received
// LinkStateUpdate.
type FloodResult struct {
	Ack       []ospf2.LSAHeader
	Installed []ospf2.LSAKey
	Deleted   []ospf2.LSAKey
}

// allowedLSType reports whether t is one of the nine LS types this probe
// recognizes, grounded on pyospf/basic/constant.py's ALLOW_LS_TYPE and the
// type allow-list check in flood.py's check_lsu step 2.
func allowedLSType(t ospf2.LSType) bool {
	switch t {
	case ospf2.RouterLSA, ospf2.NetworkLSA, ospf2.SummaryLSA, ospf2.SummaryASBRLSA,
		ospf2.ASExternalLSA, ospf2.NSSALSA, ospf2.OpaqueLinkLSA, ospf2.OpaqueAreaLSA, ospf2.OpaqueASLSA:
		return true
	default:
		return false
	}
}

// lsaPermittedByOptions reports whether this interface's own configured
// area capabilities permit accepting an LSA of type t, grounded on
// flood.py's check_lsu step 3 (E/NP/O option gates). The gate is evaluated
// against the probe's own locally configured capability, the same choice
// exchange.go's type-5 gate in CheckDD already makes, rather than the
// neighbor-echoed options flood.py happens to read.
func lsaPermittedByOptions(t ospf2.LSType, p InterfaceParams) bool {
	switch t {
	case ospf2.ASExternalLSA:
		return !p.StubArea
	case ospf2.NSSALSA:
		return p.NSSAArea
	case ospf2.OpaqueLinkLSA, ospf2.OpaqueAreaLSA:
		return p.OpaqueCapable
	case ospf2.OpaqueASLSA:
		return p.OpaqueCapable && !p.StubArea
	default:
		return true
	}
}

// AcceptLSU applies the flooding procedure of RFC 2328 section 13 to a
// received LinkStateUpdate, grounded on pyospf/protocols/flood.py's
// check_lsu. Because this probe has exactly one interface and never
// forwards, re-flooding out other interfaces (RFC 2328 section 13 step 5e)
// never applies and is not implemented.
func AcceptLSU(f *NeighborFSM, lsdb *LSDB, stats *Stats, p InterfaceParams, u *ospf2.LinkStateUpdate, now time.Time) FloodResult {
	var res FloodResult

	for _, lsa := range u.LSAs {
		if !ospf2.LSAChecksumValid(lsa.Raw) {
			if stats != nil {
				stats.bump(&stats.DroppedPacketCount)
			}
			continue
		}

		if !allowedLSType(lsa.Header.Type) || !lsaPermittedByOptions(lsa.Header.Type, p) {
			// RFC 2328 section 13 steps 2-3: an LSA of an unrecognized or
			// area-inappropriate type is dropped before it ever reaches
			// the newer/older comparison.
			if stats != nil {
				stats.bump(&stats.DroppedPacketCount)
			}
			continue
		}

		key := lsa.Header.Key(lsdb.AreaID())
		existing, have := lsdb.Lookup(key)

		if lsa.Header.Age >= ospf2.MaxAge && !have {
			if s := f.State(); s != NbrExchange && s != NbrLoading {
				// RFC 2328 section 13 step 4: a MaxAge instance the probe
				// has nothing stored for, arriving outside of Exchange or
				// Loading, is acknowledged and discarded rather than
				// installed only to be flushed moments later.
				res.Ack = append(res.Ack, lsa.Header)
				continue
			}
		}

		switch {
		case !have || InstanceOrder(lsa.Header, existing.Header) > 0:
			if have && lsdb.TooSoon(key, now) {
				// MinLSArrival not yet elapsed: discard without
				// acknowledging, RFC 2328 section 13 step 5.
				continue
			}

			if lsa.Header.Age >= ospf2.MaxAge && have {
				// Deviation from RFC 2328: rather than installing the
				// MaxAge instance and starting the usual flush timer, a
				// MaxAge LSA that supersedes something already stored is
				// deleted immediately. The probe never originates LSAs of
				// its own, so there is nothing it needs to keep a MaxAge
				// placeholder around for.
				lsdb.Delete(key)
				res.Deleted = append(res.Deleted, key)
				if stats != nil {
					stats.bump(&stats.LSADeletedCount)
				}
			} else {
				lsdb.Install(lsa, now)
				res.Installed = append(res.Installed, key)
				if stats != nil {
					stats.bump(&stats.LSAInstalledCount)
				}
			}

			FulfillLSR(f, key)
			res.Ack = append(res.Ack, lsa.Header)

		case InstanceOrder(lsa.Header, existing.Header) == 0:
			// Duplicate instance: acknowledge it per RFC 2328 section 13.7
			// so the neighbor's retransmission list stops carrying it.
			res.Ack = append(res.Ack, lsa.Header)

		default:
			// Our stored instance is newer than what was just received.
			// RFC 2328 section 13 step 6: if this exact LSA is still on
			// our own outstanding request list, the neighbor has sent us
			// something it claims is current but which contradicts what
			// it already told us once; that is a protocol error, so the
			// exchange restarts from ExStart rather than being silently
			// ignored.
			if f.hasPendingRequest(key) {
				f.Dispatch(NeighborEventBadLSReq)
				return res
			}
		}
	}

	return res
}

// GenLSAck batches headers into one or more LinkStateAcknowledgement
// packets, grounded on pyospf/protocols/flood.py's gen_lsack.
func GenLSAck(headers []ospf2.LSAHeader) []*ospf2.LinkStateAcknowledgement {
	if len(headers) == 0 {
		return nil
	}

	var out []*ospf2.LinkStateAcknowledgement
	for len(headers) > 0 {
		n := maxLSAckPerPacket
		if n > len(headers) {
			n = len(headers)
		}
		out = append(out, &ospf2.LinkStateAcknowledgement{LSAs: append([]ospf2.LSAHeader(nil), headers[:n]...)})
		headers = headers[n:]
	}
	return out
}

// FloodQueue serializes LinkStateUpdate processing onto a single goroutine,
// grounded on pyospf/utils/threadpool.py's single-worker ThreadPool(1): the
// Python original deliberately processes LSUs one at a time to keep LSDB
// mutation ordering deterministic, which a buffered channel plus one
// consuming goroutine gives for free in Go.
type FloodQueue struct {
	jobs chan func()
	done chan struct{}
}

// NewFloodQueue creates a FloodQueue and starts its single worker goroutine.
func NewFloodQueue() *FloodQueue {
	q := &FloodQueue{
		jobs: make(chan func(), 64),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *FloodQueue) run() {
	defer close(q.done)
	for job := range q.jobs {
		job()
	}
}

// Submit enqueues job to run on the worker goroutine. It blocks if the
// queue is full.
func (q *FloodQueue) Submit(job func()) {
	q.jobs <- job
}

// Close stops accepting new jobs and waits for the worker to drain the
// queue and exit.
func (q *FloodQueue) Close() {
	close(q.jobs)
	<-q.done
}
