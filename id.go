package ospf2

import "fmt"

// An ID is a four byte identifier used for OSPFv2 router IDs, area IDs,
// link state IDs, and advertising router IDs in dotted-decimal IPv4 format.
type ID [4]byte

func (id ID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", id[0], id[1], id[2], id[3])
}

// IsZero reports whether id is the all-zero area ID (the OSPF backbone) or
// an otherwise unset identifier.
func (id ID) IsZero() bool {
	return id == ID{}
}
