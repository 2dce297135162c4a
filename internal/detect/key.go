package detect

import "fmt"

// Kind names the identity a conflict was found on.
type Kind string

const (
	KindEmail   Kind = "email"
	KindAddress Kind = "address"
)

// IndexKey returns the composite key kind#dealId#identity.
func IndexKey(kind Kind, dealID int, identity string) string {
	return fmt.Sprintf("%s#%d#%s", kind, dealID, identity)
}
