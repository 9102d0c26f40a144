package ospf2

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustID(s string) ID {
	ip := net.ParseIP(s).To4()
	if ip == nil {
		panic("bad IP: " + s)
	}
	return IDFromIP(ip)
}

func TestMessageRoundTrip(t *testing.T) {
	hdr := Header{
		RouterID: mustID("10.0.0.1"),
		AreaID:   mustID("0.0.0.0"),
	}

	tests := []struct {
		name string
		m    Message
	}{
		{
			name: "hello",
			m: &Hello{
				Header:             hdr,
				NetworkMask:        net.IPMask{255, 255, 255, 0},
				HelloInterval:      10 * time.Second,
				Options:            EBit,
				RouterPriority:     0,
				RouterDeadInterval: 40 * time.Second,
				NeighborIDs:        []ID{mustID("10.0.0.2"), mustID("10.0.0.3")},
			},
		},
		{
			name: "empty hello",
			m: &Hello{
				Header:             hdr,
				NetworkMask:        net.IPMask{255, 255, 255, 252},
				HelloInterval:      10 * time.Second,
				RouterDeadInterval: 40 * time.Second,
			},
		},
		{
			name: "database description",
			m: &DatabaseDescription{
				Header:         hdr,
				InterfaceMTU:   1500,
				Options:        EBit | OBit,
				Flags:          IBit | MSBit,
				SequenceNumber: 1,
			},
		},
		{
			name: "database description with lsa headers",
			m: &DatabaseDescription{
				Header:         hdr,
				InterfaceMTU:   1500,
				Options:        EBit,
				SequenceNumber: 42,
				LSAs: []LSAHeader{
					{
						Age:               300 * time.Second,
						Options:           EBit,
						Type:              RouterLSA,
						LinkStateID:       mustID("10.0.0.1"),
						AdvertisingRouter: mustID("10.0.0.1"),
						SequenceNumber:    InitialSequenceNumber,
						Checksum:          0x1234,
						Length:            36,
					},
				},
			},
		},
		{
			name: "link state request",
			m: &LinkStateRequest{
				Header: hdr,
				Requests: []RequestEntry{
					{Type: RouterLSA, LinkStateID: mustID("10.0.0.2"), AdvertisingRouter: mustID("10.0.0.2")},
					{Type: NetworkLSA, LinkStateID: mustID("10.0.0.0"), AdvertisingRouter: mustID("10.0.0.3")},
				},
			},
		},
		{
			name: "link state acknowledgement",
			m: &LinkStateAcknowledgement{
				Header: hdr,
				LSAs: []LSAHeader{
					{
						Type:              NetworkLSA,
						LinkStateID:       mustID("10.0.0.0"),
						AdvertisingRouter: mustID("10.0.0.1"),
						SequenceNumber:    InitialSequenceNumber,
						Length:            32,
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := MarshalMessage(tt.m)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			if !HeaderChecksumValid(b) {
				t.Fatal("marshaled packet has an invalid header checksum")
			}

			got, err := ParseMessage(b)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}

			// MarshalMessage computes the header checksum, which the input
			// struct does not carry; HeaderChecksumValid above covers it.
			if diff := cmp.Diff(tt.m, got, cmpopts.EquateEmpty(), cmpopts.IgnoreFields(Header{}, "Checksum")); diff != "" {
				t.Fatalf("unexpected Message (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMessage_shortHeader(t *testing.T) {
	if _, err := ParseMessage([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error, got none")
	}
}

func TestParseMessage_badVersion(t *testing.T) {
	b := make([]byte, headerLen)
	b[0] = 99
	if _, err := ParseMessage(b); err == nil {
		t.Fatal("expected an error, got none")
	}
}
