package ospf2

// An LSABody is the type-specific payload that follows an LSAHeader within
// an LSA. Bodies are probe-only: they decode fields RFC 2328 defines, but
// this package never constructs one for origination.
type LSABody interface {
	len() int
	marshal(b []byte) error
	unmarshal(b []byte) error
}

// newLSABody allocates the LSABody implementation appropriate for t. Opaque
// and otherwise unrecognized types decode into an OpaqueBody, which parses
// the payload as a TLV sequence when it is well-formed and otherwise keeps
// only the raw bytes.
func newLSABody(t LSType) LSABody {
	switch t {
	case RouterLSA:
		return &RouterBody{}
	case NetworkLSA:
		return &NetworkBody{}
	case SummaryLSA, SummaryASBRLSA:
		return &SummaryBody{}
	case ASExternalLSA, NSSALSA:
		return &ExternalBody{}
	case OpaqueLinkLSA, OpaqueAreaLSA, OpaqueASLSA:
		return &OpaqueBody{}
	default:
		return &OpaqueBody{}
	}
}

// An LSA is a complete OSPFv2 Link State Advertisement: its header, its
// type-specific body, and the raw bytes it was decoded from (needed to
// verify LSAChecksumValid and to retransmit a neighbor's LSA byte-for-byte
// during flooding without re-marshaling it).
type LSA struct {
	Header LSAHeader
	Body   LSABody
	Raw    []byte
}

// len returns the total encoded length of the LSA, header and body.
func (l *LSA) len() int {
	return lsaHeaderLen + l.Body.len()
}

// marshal encodes the LSA's header and body into b and records the result in
// Raw. It assumes b has allocated enough space to avoid a panic.
func (l *LSA) marshal(b []byte) error {
	l.Header.Length = uint16(l.len())
	l.Header.marshal(b[:lsaHeaderLen])
	if err := l.Body.marshal(b[lsaHeaderLen:]); err != nil {
		return err
	}
	l.Raw = b
	return nil
}

// parseLSA parses a single framed LSA (header plus body) from b, where
// len(b) equals the header's own Length field.
func parseLSA(b []byte) (LSA, error) {
	if len(b) < lsaHeaderLen {
		return LSA{}, errParse
	}

	h := parseLSAHeader(b[:lsaHeaderLen])
	body := newLSABody(h.Type)
	if err := body.unmarshal(b[lsaHeaderLen:]); err != nil {
		return LSA{}, err
	}

	return LSA{Header: h, Body: body, Raw: append([]byte(nil), b...)}, nil
}
