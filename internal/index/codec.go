package index

import (
	"encoding/json"

	"dealguard/internal/order"
)

func encodeOrder(o order.Order) ([]byte, error) { return json.Marshal(o) }

func decodeOrder(val []byte) (order.Order, error) {
	var o order.Order
	if err := json.Unmarshal(val, &o); err != nil {
		return order.Order{}, err
	}
	return o, nil
}
