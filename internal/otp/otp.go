// Package otp generates the short-lived numeric codes used to authorize
// password resets.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	min  = 100000
	span = 900000
)

// Generate returns a 6-digit code drawn uniformly from [100000, 999999].
func Generate() string {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		// crypto/rand failing means the platform's entropy source is
		// broken; there is nothing sensible to fall back to.
		panic(fmt.Sprintf("otp: read random: %v", err))
	}
	return fmt.Sprintf("%06d", min+n.Int64())
}
