package ospf2

import (
	"encoding/binary"
	"fmt"
)

// OpaqueType returns the opaque type carried in the high-order byte of an
// opaque LSA's LinkStateID, as described in RFC 2370 section 3.
func (h LSAHeader) OpaqueType() uint8 {
	return h.LinkStateID[0]
}

// OpaqueInstance returns the opaque instance ID carried in the low-order
// three bytes of an opaque LSA's LinkStateID.
func (h LSAHeader) OpaqueInstance() uint32 {
	return uint32(h.LinkStateID[1])<<16 | uint32(h.LinkStateID[2])<<8 | uint32(h.LinkStateID[3])
}

// Well-known opaque types, as registered against RFC 2370.
const (
	OpaqueTypeTrafficEngineering uint8 = 1 // RFC 3630.
	OpaqueTypeGracefulRestart    uint8 = 3 // RFC 3623.
)

// Traffic engineering top-level TLV types, as described in RFC 3630 section
// 2.
const (
	TLVRouterAddress uint16 = 1
	TLVLink          uint16 = 2
)

// Traffic engineering Link TLV sub-TLV types, as described in RFC 3630
// section 2.2, extended with the Cisco-proprietary sub-pool bandwidth and
// unreserved sub-pool bandwidth TLVs this probe has observed on the wire.
const (
	SubTLVLinkType              uint16 = 1
	SubTLVLinkID                uint16 = 2
	SubTLVLocalRemoteIfAddr     uint16 = 3
	SubTLVTEMetric              uint16 = 5
	SubTLVMaxBandwidth          uint16 = 6
	SubTLVMaxReservableBandwidth uint16 = 7
	SubTLVUnreservedBandwidth   uint16 = 8
	SubTLVAdminGroup            uint16 = 9
	subTLVCiscoSubPool          uint16 = 32768
	subTLVCiscoUnreservedSubPool uint16 = 32769
	subTLVCiscoIGPMetric        uint16 = 32770
)

// A TLV is a generic type-length-value record, as used throughout opaque
// LSA bodies (RFC 2370, RFC 3630).
type TLV struct {
	Type   uint16
	Value  []byte
	Nested []TLV // Populated for container TLVs such as the Link TLV, whose Value is then nil.
}

// parseTLVs decodes a sequence of 4-byte-aligned TLVs from b.
func parseTLVs(b []byte) ([]TLV, error) {
	var tlvs []TLV
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, fmt.Errorf("truncated TLV header: %w", errParse)
		}

		typ := binary.BigEndian.Uint16(b[0:2])
		length := int(binary.BigEndian.Uint16(b[2:4]))
		padded := length
		if pad := length % 4; pad != 0 {
			padded += 4 - pad
		}
		if 4+padded > len(b) {
			return nil, fmt.Errorf("truncated TLV value for type %d: %w", typ, errParse)
		}

		value := append([]byte(nil), b[4:4+length]...)
		t := TLV{Type: typ, Value: value}

		if typ == TLVLink {
			nested, err := parseTLVs(value)
			if err != nil {
				return nil, fmt.Errorf("failed to parse nested Link sub-TLVs: %w", err)
			}
			t.Nested = nested
			t.Value = nil
		}

		tlvs = append(tlvs, t)
		b = b[4+padded:]
	}

	return tlvs, nil
}

// marshalTLVs encodes tlvs back into their wire form.
func marshalTLVs(tlvs []TLV) []byte {
	var out []byte
	for _, t := range tlvs {
		value := t.Value
		if t.Nested != nil {
			value = marshalTLVs(t.Nested)
		}

		hdr := make([]byte, 4)
		binary.BigEndian.PutUint16(hdr[0:2], t.Type)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(value)))
		out = append(out, hdr...)
		out = append(out, value...)

		if pad := len(value) % 4; pad != 0 {
			out = append(out, make([]byte, 4-pad)...)
		}
	}
	return out
}

var _ LSABody = &OpaqueBody{}

// An OpaqueBody is the body of a type-9, type-10, or type-11 opaque LSA, as
// described in RFC 2370. The body is a flat sequence of TLVs; this probe
// decodes the RFC 3630 traffic-engineering TLV set (used by OpaqueAreaLSA)
// and otherwise keeps the payload available as raw, undecoded TLVs.
type OpaqueBody struct {
	TLVs []TLV
	raw  []byte
}

func (o *OpaqueBody) len() int {
	return len(marshalTLVs(o.TLVs))
}

func (o *OpaqueBody) marshal(b []byte) error {
	copy(b, marshalTLVs(o.TLVs))
	return nil
}

func (o *OpaqueBody) unmarshal(b []byte) error {
	o.raw = append([]byte(nil), b...)

	tlvs, err := parseTLVs(b)
	if err != nil {
		// Not every opaque payload is well-formed TLV data (vendor-specific
		// opaque-AS LSAs in particular); fall back to the raw bytes rather
		// than rejecting the LSA outright.
		o.TLVs = nil
		return nil
	}
	o.TLVs = tlvs

	return nil
}
