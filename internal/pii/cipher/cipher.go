// Package cipher encrypts short PII strings (identity document numbers) for
// storage.
//
// Tokens have the form "<ivHex>:<cipherHex>": a random 16-byte IV and the
// AES-256-CBC ciphertext of the PKCS#7-padded plaintext, both lowercase hex.
// The key is derived once from the configured secret with scrypt, so guessing
// the secret from a stolen token is expensive. A Cipher holds no mutable state
// after construction and is safe for concurrent use.
package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"

	dErrors "vouch/pkg/domain-errors"
)

const (
	keyLen      = 32
	ivHexLen    = aes.BlockSize * 2
	separator   = ":"
	scryptN     = 1 << 14
	scryptR     = 8
	scryptP     = 1
	maxTokenLen = 4096
)

// Config is injected at construction. Secret and Salt are both required.
type Config struct {
	Secret string
	// Salt is per installation, not per record.
	Salt string
}

type Cipher struct {
	block cipher.Block
	rand  io.Reader
}

// Option customizes a Cipher.
type Option func(*Cipher)

// WithRandom replaces the IV source. Intended for tests.
func WithRandom(r io.Reader) Option {
	return func(c *Cipher) {
		c.rand = r
	}
}

// New derives the key and prepares the block cipher. A missing secret or salt
// is a configuration error the caller should treat as fatal.
func New(cfg Config, opts ...Option) (*Cipher, error) {
	if cfg.Secret == "" {
		return nil, errors.New("cipher: secret is required")
	}
	if cfg.Salt == "" {
		return nil, errors.New("cipher: salt is required")
	}
	key, err := scrypt.Key([]byte(cfg.Secret), []byte(cfg.Salt), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("cipher: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: init aes: %w", err)
	}

	c := &Cipher{block: block, rand: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encrypt returns the token for plaintext. Empty plaintext is returned
// unchanged.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeEncryption, "failed to generate iv")
	}

	padded := pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + separator + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Empty tokens are returned unchanged. Structural
// problems yield CodeMalformedToken; a token that parses but does not decrypt
// under this key yields CodeEncryption. Decrypt never returns its input on
// failure.
func (c *Cipher) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	if len(token) > maxTokenLen {
		return "", dErrors.New(dErrors.CodeMalformedToken, "token too long")
	}

	ivHex, ctHex, ok := strings.Cut(token, separator)
	if !ok {
		return "", dErrors.New(dErrors.CodeMalformedToken, "token missing separator")
	}
	if len(ivHex) != ivHexLen {
		return "", dErrors.New(dErrors.CodeMalformedToken, "iv must be 32 hex characters")
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", dErrors.New(dErrors.CodeMalformedToken, "iv is not valid hex")
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", dErrors.New(dErrors.CodeMalformedToken, "ciphertext is not valid hex")
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", dErrors.New(dErrors.CodeMalformedToken, "ciphertext is not a whole number of blocks")
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, ct)

	plain, err := unpad(out)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeEncryption, "failed to decrypt token")
	}
	return string(plain), nil
}

var errBadPadding = errors.New("invalid padding")

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errBadPadding
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, errBadPadding
		}
	}
	return b[:len(b)-n], nil
}
