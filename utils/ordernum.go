package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns an order number like ORD-20250901-7GQ2. The date
// part is UTC; the suffix is 4 random base36 characters. Uniqueness is
// enforced by the orders table index, callers retry on collision.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
