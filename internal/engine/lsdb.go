package engine

import (
	"sync"
	"time"

	ospf2 "github.com/ospfprobe/ospfprobe"
)

// MinLSArrival is the minimum time that must elapse between accepting two
// instances of the same LSA, RFC 2328 section 13.
const MinLSArrival = 1 * time.Second

// MinAgeDiff is the age difference, in seconds, above which the instance
// with the smaller age is considered strictly newer even when sequence
// number and checksum are equal, RFC 2328 section 13.1.
const MinAgeDiff = 900 * time.Second

// entry is a single stored LSA plus the bookkeeping the LSDB needs around
// it: the receive time that MinLSArrival is checked against lives here
// rather than on ospf2.LSA, which is a pure wire type.
type entry struct {
	lsa        ospf2.LSA
	receivedAt time.Time
}

// LSDB is the probe's link state database, grounded on
// pyospf/core/ospfLsdb.py's type-keyed map-of-maps, flattened here into a
// single map keyed by LSAKey since Go's LSAKey already folds in area scope.
type LSDB struct {
	mu      sync.RWMutex
	entries map[ospf2.LSAKey]*entry
	areaID  ospf2.ID
}

// NewLSDB creates an empty LSDB for the given area.
func NewLSDB(areaID ospf2.ID) *LSDB {
	return &LSDB{
		entries: make(map[ospf2.LSAKey]*entry),
		areaID:  areaID,
	}
}

// AreaID returns the area this LSDB is scoped to.
func (d *LSDB) AreaID() ospf2.ID { return d.areaID }

// Lookup returns the stored LSA for key, if any.
func (d *LSDB) Lookup(key ospf2.LSAKey) (ospf2.LSA, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entries[key]
	if !ok {
		return ospf2.LSA{}, false
	}
	return e.lsa, true
}

// All returns every LSA currently stored, across all types.
func (d *LSDB) All() []ospf2.LSA {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]ospf2.LSA, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.lsa)
	}
	return out
}

// ByType returns every stored LSA of the given type.
func (d *LSDB) ByType(t ospf2.LSType) []ospf2.LSA {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []ospf2.LSA
	for k, e := range d.entries {
		if k.Type == t {
			out = append(out, e.lsa)
		}
	}
	return out
}

// Count returns the number of stored LSAs of each type.
func (d *LSDB) Count() map[ospf2.LSType]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := make(map[ospf2.LSType]int)
	for k := range d.entries {
		counts[k.Type]++
	}
	return counts
}

// TooSoon reports whether installing a new instance for key at now would
// violate MinLSArrival against whatever instance (if any) is already stored.
func (d *LSDB) TooSoon(key ospf2.LSAKey, now time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entries[key]
	if !ok {
		return false
	}
	return now.Sub(e.receivedAt) < MinLSArrival
}

// Install stores lsa, overwriting any previous instance for its key.
func (d *LSDB) Install(lsa ospf2.LSA, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := lsa.Header.Key(d.areaID)
	d.entries[key] = &entry{lsa: lsa, receivedAt: now}
}

// Delete removes the stored instance for key, if any, and reports whether
// anything was removed.
func (d *LSDB) Delete(key ospf2.LSAKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	return true
}

// Empty removes every LSA from the LSDB. Grounded on
// pyospf/core/ospfLsdb.py's empty_lsdb, called whenever the probe's single
// neighbor relationship resets, since there is then no adjacency left to
// have populated the database.
func (d *LSDB) Empty() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = make(map[ospf2.LSAKey]*entry)
}

// AgeSweep advances the age of every stored LSA by elapsed and deletes any
// that have reached MaxAge and lack the DoNotAge bit, as described in RFC
// 2328 section 14 and grounded on
// pyospf/core/interfaceStateMachine.py's per-second _lsaAge walk.
func (d *LSDB) AgeSweep(elapsed time.Duration) (expired []ospf2.LSAKey) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, e := range d.entries {
		if e.lsa.Header.DoNotAge {
			continue
		}
		e.lsa.Header.Age += elapsed
		if e.lsa.Header.Age >= ospf2.MaxAge {
			delete(d.entries, k)
			expired = append(expired, k)
		}
	}
	return expired
}

// InstanceOrder reports how new compares to old, per RFC 2328 section 13.1:
// 1 if new is a more recent instance, -1 if old is, 0 if they are the same
// instance.
func InstanceOrder(newHdr, oldHdr ospf2.LSAHeader) int {
	if newHdr.SequenceNumber != oldHdr.SequenceNumber {
		if signedGreater(newHdr.SequenceNumber, oldHdr.SequenceNumber) {
			return 1
		}
		return -1
	}

	if newHdr.Checksum != oldHdr.Checksum {
		if newHdr.Checksum > oldHdr.Checksum {
			return 1
		}
		return -1
	}

	newMax := newHdr.Age >= ospf2.MaxAge
	oldMax := oldHdr.Age >= ospf2.MaxAge
	if newMax != oldMax {
		if newMax {
			return 1
		}
		return -1
	}

	diff := newHdr.Age - oldHdr.Age
	if diff < 0 {
		diff = -diff
	}
	if diff > MinAgeDiff {
		if newHdr.Age < oldHdr.Age {
			return 1
		}
		return -1
	}

	return 0
}

// signedGreater compares two LS sequence numbers as RFC 2328 section
// 12.1.6 signed 32-bit integers.
func signedGreater(a, b uint32) bool {
	return int32(a) > int32(b)
}
