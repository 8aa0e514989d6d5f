// Package credentials generates account secrets, encrypts them and collects
// them into the manifest written at the end of a run.
package credentials

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// Cipher encrypts a secret before it is stored. Nothing in this module
// decrypts.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
}

// ErrNoKey is returned when no cipher key is configured.
var ErrNoKey = errors.New("no credential key configured")

// FernetCipher encrypts with a Fernet key, producing URL-safe base64 tokens.
type FernetCipher struct {
	key *fernet.Key
}

// NewFernetCipher decodes a base64 Fernet key.
func NewFernetCipher(encodedKey string) (*FernetCipher, error) {
	if encodedKey == "" {
		return nil, ErrNoKey
	}
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding credential key: %w", err)
	}
	return &FernetCipher{key: key}, nil
}

// Encrypt implements Cipher.
func (c *FernetCipher) Encrypt(plaintext []byte) ([]byte, error) {
	tok, err := fernet.EncryptAndSign(plaintext, c.key)
	if err != nil {
		return nil, fmt.Errorf("encrypting secret: %w", err)
	}
	return tok, nil
}

// GenerateKey returns a new random Fernet key in its encoded form.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generating credential key: %w", err)
	}
	return k.Encode(), nil
}
