package order

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// FieldCount is the number of comma separated fields in a record line.
const FieldCount = 8

// Fields holds the raw values of one record before normalization.
type Fields struct {
	OrderID    int
	DealID     int
	Email      string
	Address    string
	City       string
	State      string
	ZipCode    string
	CreditCard string
}

// Order is a normalized order. Build it with New or Parse and treat it as
// read-only afterwards.
type Order struct {
	OrderID     int    `json:"orderId"`
	DealID      int    `json:"dealId"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	CreditCard  string `json:"creditCard"`
	FullAddress string `json:"fullAddress"`
}

// New normalizes the raw fields and derives the full address key.
func New(f Fields) (Order, error) {
	email, err := NormalizeEmail(f.Email)
	if err != nil {
		return Order{}, errors.Wrapf(err, "order %d", f.OrderID)
	}
	address := NormalizeAddress(f.Address)
	state := NormalizeState(f.State)
	return Order{
		OrderID:     f.OrderID,
		DealID:      f.DealID,
		Email:       email,
		Address:     address,
		City:        f.City,
		State:       state,
		ZipCode:     f.ZipCode,
		CreditCard:  f.CreditCard,
		FullAddress: FullAddress(address, f.City, state, f.ZipCode),
	}, nil
}

// Parse reads one line of the form
// order_id,deal_id,email,address,city,state,zip_code,credit_card.
func Parse(line string) (Order, error) {
	parts := strings.Split(line, ",")
	if len(parts) != FieldCount {
		return Order{}, errors.Wrapf(ErrMalformedRecord, "want %d fields, got %d: %q", FieldCount, len(parts), line)
	}
	orderID, err := parseID(parts[0])
	if err != nil {
		return Order{}, errors.Wrapf(ErrMalformedRecord, "order id %q: %q", parts[0], line)
	}
	dealID, err := parseID(parts[1])
	if err != nil {
		return Order{}, errors.Wrapf(ErrMalformedRecord, "deal id %q: %q", parts[1], line)
	}
	return New(Fields{
		OrderID:    orderID,
		DealID:     dealID,
		Email:      parts[2],
		Address:    parts[3],
		City:       parts[4],
		State:      parts[5],
		ZipCode:    parts[6],
		CreditCard: parts[7],
	})
}

func parseID(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// ParseAll parses every line or none. The first bad line aborts.
func ParseAll(lines []string) ([]Order, error) {
	orders := make([]Order, 0, len(lines))
	for i, line := range lines {
		o, err := Parse(line)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i+1)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
