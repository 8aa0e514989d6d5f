package credentials

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// DefaultLength is the secret length used when none is configured.
const DefaultLength = 16

// MinLength is the shortest secret that can satisfy the composition rules.
const MinLength = 4

const (
	upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lower   = "abcdefghijklmnopqrstuvwxyz"
	digits  = "0123456789"
	letters = upper + lower
	charset = letters + digits
)

// Generator produces random account secrets. A secret starts with a letter
// and holds at least one upper-case letter, one lower-case letter and one
// digit.
type Generator struct {
	Length int
	// Rand is the entropy source; nil means crypto/rand.
	Rand io.Reader
}

// Generate returns a new secret.
func (g Generator) Generate() (string, error) {
	n := g.Length
	if n == 0 {
		n = DefaultLength
	}
	if n < MinLength {
		return "", fmt.Errorf("secret length %d is below the minimum of %d", n, MinLength)
	}
	src := g.Rand
	if src == nil {
		src = rand.Reader
	}

	for {
		var b strings.Builder
		first, err := pick(src, letters)
		if err != nil {
			return "", err
		}
		b.WriteByte(first)
		for b.Len() < n {
			c, err := pick(src, charset)
			if err != nil {
				return "", err
			}
			b.WriteByte(c)
		}
		if s := b.String(); acceptable(s) {
			return s, nil
		}
	}
}

func pick(src io.Reader, set string) (byte, error) {
	i, err := rand.Int(src, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("reading entropy: %w", err)
	}
	return set[i.Int64()], nil
}

func acceptable(s string) bool {
	return strings.ContainsAny(s, upper) &&
		strings.ContainsAny(s, lower) &&
		strings.ContainsAny(s, digits)
}
