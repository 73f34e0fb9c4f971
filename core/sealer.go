package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "sb1:"

var errUnsealFailed = errors.New("could not unseal value")

// Sealer encrypts personal data stored at rest.
type Sealer struct {
	key [32]byte
}

func NewSealer(conf *Config) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(conf.EncryptionKey))}
}

// Seal encrypts `s`. Empty strings stay empty.
func (sl *Sealer) Seal(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(s), &nonce, &sl.key)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Unseal decrypts a value produced by Seal. Values without the sealed prefix are returned as is.
func (sl *Sealer) Unseal(s string) (string, error) {
	if !strings.HasPrefix(s, sealedPrefix) {
		return s, nil
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(s, sealedPrefix))
	if err != nil || len(raw) < 24 {
		return "", errUnsealFailed
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	out, ok := secretbox.Open(nil, raw[24:], &nonce, &sl.key)
	if !ok {
		// well-formed but unauthenticated: the configured key is not the one the data was sealed with
		return "", NewShutdownError("encryption key does not match sealed data")
	}
	return string(out), nil
}
