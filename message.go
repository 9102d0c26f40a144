package ospf2

import "fmt"

// A Message is an OSPFv2 protocol data unit.
type Message interface {
	len() int
	marshal(b []byte) error
	unmarshal(b []byte) error
}

// MarshalMessage turns a Message into OSPFv2 packet bytes, computing the
// header checksum over the finished packet.
func MarshalMessage(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("ospf2: cannot marshal nil Message: %w", errMarshal)
	}

	b := make([]byte, m.len())
	if err := m.marshal(b); err != nil {
		return nil, fmt.Errorf("ospf2: failed to marshal Message: %w", err)
	}

	// The Header.marshal call inside each Message.marshal leaves the
	// checksum field as the caller supplied it (usually zero); compute the
	// real value now that the full packet is laid out.
	b[12], b[13] = 0, 0
	sum := computeHeaderChecksum(b)
	b[12] = byte(sum >> 8)
	b[13] = byte(sum)

	return b, nil
}

// ParseMessage parses an OSPFv2 Header and trailing Message from bytes.
func ParseMessage(b []byte) (Message, error) {
	h, ptyp, plen, err := parseHeader(b)
	if err != nil {
		return nil, fmt.Errorf("ospf2: failed to parse Header: %w", err)
	}

	var m Message
	switch ptyp {
	case hello:
		m = &Hello{Header: h}
	case databaseDescription:
		m = &DatabaseDescription{Header: h}
	case linkStateRequest:
		m = &LinkStateRequest{Header: h}
	case linkStateUpdate:
		m = &LinkStateUpdate{Header: h}
	case linkStateAcknowledgement:
		m = &LinkStateAcknowledgement{Header: h}
	default:
		return nil, fmt.Errorf("ospf2: parsing not implemented message type: %d", ptyp)
	}

	if err := m.unmarshal(b[headerLen:plen]); err != nil {
		return nil, fmt.Errorf("ospf2: failed to parse Message: %w", err)
	}

	return m, nil
}
