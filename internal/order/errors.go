package order

import "github.com/cockroachdb/errors"

// ErrMalformedRecord is returned for lines that cannot become an Order.
var ErrMalformedRecord = errors.New("malformed record")
