// Package detect finds orders that share a deal and a normalized identity
// (email or full address) but were paid with different credit cards.
//
// Every (kind, deal, identity) key keeps the first order seen for it as its
// anchor. Later orders with the same key are compared against the anchor only,
// so with cards 1111, 1111, 2222 the first and third orders are flagged and
// the second is not.
package detect

import (
	"context"

	"github.com/cockroachdb/errors"

	"dealguard/internal/index"
	"dealguard/internal/order"
)

// Alert records one credential conflict.
type Alert struct {
	Kind          Kind   `json:"kind"`
	DealID        int    `json:"dealId"`
	OrderID       int    `json:"orderId"`
	AnchorOrderID int    `json:"anchorOrderId"`
	IdentityKey   string `json:"identityKey"`
}

// Result is everything a run produces.
type Result struct {
	Records int
	// Flagged holds each flagged order id once, in first-flag order.
	Flagged []int
	Alerts  []Alert
	// IndexKeys is the number of distinct identity keys seen.
	IndexKeys int
}

// Conflicts counts alerts of the given kind.
func (r Result) Conflicts(kind Kind) int {
	n := 0
	for _, a := range r.Alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Detector runs the two identity checks over a batch.
type Detector struct {
	store index.Store
}

// New returns a Detector that indexes into st. st must be empty and must not
// be reused for another batch.
func New(st index.Store) *Detector {
	return &Detector{store: st}
}

// Run processes orders in input order.
func (d *Detector) Run(ctx context.Context, orders []order.Order) (Result, error) {
	flagged := NewFlagSet()
	var alerts []Alert
	for i, o := range orders {
		if err := ctx.Err(); err != nil {
			return Result{}, errors.Wrapf(err, "detect stopped at record %d", i+1)
		}
		for _, check := range []struct {
			kind     Kind
			identity string
		}{
			{KindEmail, o.Email},
			{KindAddress, o.FullAddress},
		} {
			alert, conflict, err := d.check(check.kind, check.identity, o)
			if err != nil {
				return Result{}, err
			}
			if !conflict {
				continue
			}
			flagged.Add(alert.AnchorOrderID)
			flagged.Add(alert.OrderID)
			alerts = append(alerts, alert)
		}
	}
	return Result{
		Records:   len(orders),
		Flagged:   flagged.IDs(),
		Alerts:    alerts,
		IndexKeys: d.store.Len(),
	}, nil
}

func (d *Detector) check(kind Kind, identity string, o order.Order) (Alert, bool, error) {
	anchor, loaded, err := d.store.PutIfAbsent(IndexKey(kind, o.DealID, identity), o)
	if err != nil {
		return Alert{}, false, errors.Wrapf(err, "index %s for order %d", kind, o.OrderID)
	}
	if !loaded || anchor.CreditCard == o.CreditCard {
		return Alert{}, false, nil
	}
	return Alert{
		Kind:          kind,
		DealID:        o.DealID,
		OrderID:       o.OrderID,
		AnchorOrderID: anchor.OrderID,
		IdentityKey:   identity,
	}, true, nil
}

// Detect runs a Detector over orders with a fresh in-memory index.
func Detect(orders []order.Order) []int {
	res, err := New(index.NewInMemoryStore()).Run(context.Background(), orders)
	if err != nil {
		// The in-memory index never fails and the context is never cancelled.
		panic(err)
	}
	return res.Flagged
}
