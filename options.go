package ospf2

// Options is the single-byte OSPFv2 options bitmask carried in Hello, DD,
// and LSA header packets, as described in RFC 2328 appendix A.2 with the
// NSSA (RFC 3101) and opaque-capable (RFC 2370) extensions.
type Options uint8

// Possible Options bits.
const (
	// EBit indicates the router is willing to accept AS-external LSAs.
	EBit Options = 1 << 1
	// MCBit indicates the router forwards IP multicast datagrams (MOSPF).
	MCBit Options = 1 << 2
	// NPBit indicates NSSA-capable handling of type-7 LSAs (RFC 3101).
	NPBit Options = 1 << 3
	// EABit is the deprecated external-attributes bit.
	EABit Options = 1 << 4
	// DCBit indicates the router supports demand circuits (RFC 1793).
	DCBit Options = 1 << 5
	// OBit indicates the router understands opaque LSAs (RFC 2370).
	OBit Options = 1 << 6
	// DNBit marks a downstream-originated VPN LSA (RFC 4576).
	DNBit Options = 1 << 7
)

// String returns the string representation of an Options bitmask.
func (o Options) String() string {
	return flagsString(uint(o), []string{
		"MT-bit",
		"E-bit",
		"MC-bit",
		"NP-bit",
		"EA-bit",
		"DC-bit",
		"O-bit",
		"DN-bit",
	})
}
