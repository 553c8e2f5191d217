// Package issuer generates the access keys handed out at the end of a
// completed flow.
//
// Keys are not recorded anywhere and are never validated after issuance.
package issuer

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

const (
	// SegmentLength is the number of characters per key segment.
	SegmentLength = 4
	// SegmentCount is the number of dash-separated segments after the prefix.
	SegmentCount = 3

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrRandomUnavailable wraps failures of the random source.
var ErrRandomUnavailable = errors.New("random source unavailable")

// IssuedKey is a generated key and its validity window.
type IssuedKey struct {
	Value       string    `json:"value"`
	GeneratedAt time.Time `json:"generatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Issuer draws key characters from a random source.
type Issuer struct {
	random io.Reader
}

// New returns an Issuer reading from random, or crypto/rand when nil.
func New(random io.Reader) *Issuer {
	if random == nil {
		random = rand.Reader
	}
	return &Issuer{random: random}
}

// Issue returns <prefix>XXXX-XXXX-XXXX with each X drawn uniformly from
// [0-9A-Z], expiring exactly expiryHours after now.
func (i *Issuer) Issue(prefix string, expiryHours int, now time.Time) (IssuedKey, error) {
	var b strings.Builder
	b.Grow(len(prefix) + SegmentCount*(SegmentLength+1))
	b.WriteString(prefix)

	max := big.NewInt(int64(len(alphabet)))
	for s := 0; s < SegmentCount; s++ {
		if s > 0 {
			b.WriteByte('-')
		}
		for c := 0; c < SegmentLength; c++ {
			n, err := rand.Int(i.random, max)
			if err != nil {
				return IssuedKey{}, fmt.Errorf("%w: %v", ErrRandomUnavailable, err)
			}
			b.WriteByte(alphabet[n.Int64()])
		}
	}

	return IssuedKey{
		Value:       b.String(),
		GeneratedAt: now,
		ExpiresAt:   now.Add(time.Duration(expiryHours) * time.Hour),
	}, nil
}

// Matches reports whether value has the shape Issue produces for prefix.
func Matches(prefix, value string) bool {
	rest, ok := strings.CutPrefix(value, prefix)
	if !ok {
		return false
	}

	segments := strings.Split(rest, "-")
	if len(segments) != SegmentCount {
		return false
	}
	for _, seg := range segments {
		if len(seg) != SegmentLength {
			return false
		}
		for j := 0; j < len(seg); j++ {
			if !strings.ContainsRune(alphabet, rune(seg[j])) {
				return false
			}
		}
	}
	return true
}
