// Package session implements the stateless session scheme: a JSON session
// descriptor encrypted into an opaque hex token that the client presents
// on every privileged request. The token itself is the whole session
// state; nothing is stored server-side and expired tokens cannot be
// renewed.
package session

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"
)

// Reasons surfaced to clients by Validate.
const (
	ReasonNoToken = "No token provided"
	ReasonInvalid = "Token is invalid"
	ReasonExpired = "Token expired"
	ReasonValid   = "Token is valid"
)

var errMalformedToken = errors.New("malformed token")

// Descriptor is the session state carried inside the opaque token.
// IssuedAt is epoch milliseconds; the wire names match the original
// cookie payload.
type Descriptor struct {
	User     string `json:"user"`
	IssuedAt int64  `json:"date"`
}

// Auth is the single authorization decision for one token.
type Auth struct {
	Allowed bool
	Reason  string
	User    string
}

// Codec encrypts and validates session tokens. The key is fixed for the
// process lifetime; a fresh random IV is minted per token and prepended
// to the ciphertext, so identical descriptors never produce identical
// tokens.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// DeriveKey stretches the configured secret into a 32-byte AES-256 key
// with argon2id.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// NewCodec builds a codec from a 32-byte key and a token TTL.
func NewCodec(key []byte, ttl time.Duration) (*Codec, error) {
	return NewCodecWithClock(key, ttl, time.Now)
}

// NewCodecWithClock is NewCodec with an injectable clock, used by tests
// to simulate token expiry.
func NewCodecWithClock(key []byte, ttl time.Duration, now func() time.Time) (*Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("session key must be 32 bytes, got %d", len(key))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %v", ttl)
	}
	return &Codec{key: key, ttl: ttl, now: now}, nil
}

// Mint serializes the descriptor to JSON, encrypts it with AES-256-CBC
// under a fresh IV and returns hex(iv || ciphertext).
func (c *Codec) Mint(d Descriptor) (string, error) {
	plaintext, err := json.Marshal(d)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)

	return hex.EncodeToString(out), nil
}

// MintFor mints a token for user issued at the codec's current time.
func (c *Codec) MintFor(user string) (string, error) {
	return c.Mint(Descriptor{User: user, IssuedAt: c.now().UnixMilli()})
}

// Validate decides whether a presented token grants access. It fails
// closed: an empty token, any decode failure and an over-TTL age all
// yield Allowed=false with the corresponding reason. Garbage input never
// panics.
func (c *Codec) Validate(token string) Auth {
	if token == "" {
		return Auth{Reason: ReasonNoToken}
	}

	d, err := c.decode(token)
	if err != nil {
		return Auth{Reason: ReasonInvalid}
	}

	if c.now().UnixMilli()-d.IssuedAt > c.ttl.Milliseconds() {
		return Auth{Reason: ReasonExpired}
	}

	return Auth{Allowed: true, Reason: ReasonValid, User: d.User}
}

func (c *Codec) decode(token string) (*Descriptor, error) {
	raw, err := hex.DecodeString(token)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2*aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return nil, errMalformedToken
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}

	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{}
	if err := json.Unmarshal(plaintext, d); err != nil {
		return nil, err
	}
	return d, nil
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errMalformedToken
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errMalformedToken
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errMalformedToken
		}
	}
	return data[:len(data)-n], nil
}
