package engine

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats tracks the probe's packet counters, grounded on
// pyospf/core/ospfStat.py's OspfStat. Counters are plain atomics so every
// receive/send path can bump them without touching the LSDB or neighbor
// table locks. Five of them (received, handled and dropped packets,
// installed and deleted LSAs) are mirrored onto a Prometheus registry for
// scraping.
type Stats struct {
	TotalReceivedPackets  uint64
	TotalHandledPackets   uint64
	ReceivedHelloCount    uint64
	ReceivedDDCount       uint64
	ReceivedLSRCount      uint64
	ReceivedLSUCount      uint64
	ReceivedLSAckCount    uint64
	SentHelloCount        uint64
	SentDDCount           uint64
	SentLSRCount          uint64
	SentLSUCount          uint64
	SentLSAckCount        uint64
	DroppedPacketCount    uint64
	LSADeletedCount       uint64
	LSAInstalledCount     uint64

	reg *prometheus.Registry
}

// NewStats creates a Stats with its Prometheus gauges registered on a
// dedicated (non-global) registry, as described in SPEC_FULL.md section 7.
func NewStats() *Stats {
	s := &Stats{reg: prometheus.NewRegistry()}

	for name, fn := range map[string]func() float64{
		"ospfprobe_received_packets_total":   func() float64 { return float64(atomic.LoadUint64(&s.TotalReceivedPackets)) },
		"ospfprobe_handled_packets_total":    func() float64 { return float64(atomic.LoadUint64(&s.TotalHandledPackets)) },
		"ospfprobe_dropped_packets_total":    func() float64 { return float64(atomic.LoadUint64(&s.DroppedPacketCount)) },
		"ospfprobe_lsa_installed_total":      func() float64 { return float64(atomic.LoadUint64(&s.LSAInstalledCount)) },
		"ospfprobe_lsa_deleted_total":        func() float64 { return float64(atomic.LoadUint64(&s.LSADeletedCount)) },
	} {
		name, fn := name, fn
		s.reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name},
			fn,
		))
	}

	return s
}

// Registry returns the Prometheus registry Stats publishes its gauges on.
func (s *Stats) Registry() *prometheus.Registry { return s.reg }

// bump atomically increments one of Stats's counters.
func (s *Stats) bump(counter *uint64) {
	atomic.AddUint64(counter, 1)
}

// Snapshot is a point-in-time copy of Stats suitable for JSON encoding.
type Snapshot struct {
	TotalReceivedPackets uint64 `json:"total_received_packet_count"`
	TotalHandledPackets  uint64 `json:"total_handled_packet_count"`
	ReceivedHelloCount   uint64 `json:"recv_hello_count"`
	ReceivedDDCount      uint64 `json:"recv_dd_count"`
	ReceivedLSRCount     uint64 `json:"recv_lsr_count"`
	ReceivedLSUCount     uint64 `json:"recv_lsu_count"`
	ReceivedLSAckCount   uint64 `json:"recv_lsack_count"`
	SentHelloCount       uint64 `json:"send_hello_count"`
	SentDDCount          uint64 `json:"send_dd_count"`
	SentLSRCount         uint64 `json:"send_lsr_count"`
	SentLSUCount         uint64 `json:"send_lsu_count"`
	SentLSAckCount       uint64 `json:"send_lsack_count"`
	DroppedPacketCount   uint64 `json:"dropped_packet_count"`
	LSAInstalledCount    uint64 `json:"lsa_installed_count"`
	LSADeletedCount      uint64 `json:"lsa_deleted_count"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		TotalReceivedPackets: atomic.LoadUint64(&s.TotalReceivedPackets),
		TotalHandledPackets:  atomic.LoadUint64(&s.TotalHandledPackets),
		ReceivedHelloCount:   atomic.LoadUint64(&s.ReceivedHelloCount),
		ReceivedDDCount:      atomic.LoadUint64(&s.ReceivedDDCount),
		ReceivedLSRCount:     atomic.LoadUint64(&s.ReceivedLSRCount),
		ReceivedLSUCount:     atomic.LoadUint64(&s.ReceivedLSUCount),
		ReceivedLSAckCount:   atomic.LoadUint64(&s.ReceivedLSAckCount),
		SentHelloCount:       atomic.LoadUint64(&s.SentHelloCount),
		SentDDCount:          atomic.LoadUint64(&s.SentDDCount),
		SentLSRCount:         atomic.LoadUint64(&s.SentLSRCount),
		SentLSUCount:         atomic.LoadUint64(&s.SentLSUCount),
		SentLSAckCount:       atomic.LoadUint64(&s.SentLSAckCount),
		DroppedPacketCount:   atomic.LoadUint64(&s.DroppedPacketCount),
		LSAInstalledCount:    atomic.LoadUint64(&s.LSAInstalledCount),
		LSADeletedCount:      atomic.LoadUint64(&s.LSADeletedCount),
	}
}
