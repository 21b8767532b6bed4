package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// RandomInRange returns a uniform random int in [min, max].
func RandomInRange(min, max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, err
	}
	return min + n.Int64(), nil
}

// NewTicketNumber mints a ticket number of the form T20260314-512:
// the creation date plus a 3-digit random suffix. The suffix is not
// checked for uniqueness, so two tickets created on the same day can
// collide.
func NewTicketNumber(now time.Time) (string, error) {
	suffix, err := RandomInRange(100, 999)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("T%s-%d", now.Format("20060102"), suffix), nil
}
