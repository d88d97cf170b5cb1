// Package memo derives the transfer comment that identifies a payment intent.
package memo

import (
	"strconv" // For formatting the hash input
	"strings" // For padding and case
	"time"    // For the clock

	"github.com/cespare/xxhash/v2" // Fast non-cryptographic hash
)

// Length is the number of hex characters in a memo.
const Length = 16

// Clock supplies the timestamp mixed into the memo.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Generate hashes (userID, amount, now) into an upper-case hex token.
// Collisions are possible; the ledger's unique index rejects them.
func Generate(userID, amount int64, clock Clock) string {
	data := strconv.FormatInt(userID, 10) + "_" + strconv.FormatInt(amount, 10) + "_" + strconv.FormatInt(clock.Now().UnixNano(), 10)
	sum := strconv.FormatUint(xxhash.Sum64String(data), 16)
	if len(sum) < Length { // Keep leading zeros
		sum = strings.Repeat("0", Length-len(sum)) + sum
	}
	return strings.ToUpper(sum[:Length])
}

// Valid reports whether s has the shape of a generated memo.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}
