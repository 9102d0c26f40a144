// Package ospf2 implements the wire format of OSPFv2 (RFC 2328): packet
// headers, the five protocol data units, and the LSA types a passive probe
// needs to decode.
package ospf2

//go:generate stringer -type=LSType,packetType -output=string.go
