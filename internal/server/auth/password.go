package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	DefaultBcryptCost = 12

	// bcrypt only reads the first 72 bytes of its input.
	bcryptMaxInput = 72
)

// PasswordHasher produces salted one-way hashes of plaintext passwords.
// Verify never fails loudly: a malformed or foreign hash is a non-match.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher hashes with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// bcryptInput pre-hashes plaintexts that exceed bcrypt's input limit so every
// byte of a long password contributes to the hash.
func bcryptInput(plain string) []byte {
	if len(plain) <= bcryptMaxInput {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(bcryptInput(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plain)) == nil
}

// Argon2Params are the memory and CPU cost factors for argon2id.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2Hasher hashes with argon2id and encodes results in PHC string format,
// so parameters travel with each hash.
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: p}
}

func (h *Argon2Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto/rand failed: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(plain, hash string) bool {
	p, salt, key, err := decodeArgon2Hash(hash)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, other) == 1
}

func decodeArgon2Hash(encoded string) (p Argon2Params, salt, key []byte, err error) {
	vals := strings.Split(encoded, "$")
	if len(vals) != 6 || vals[1] != AlgorithmArgon2id {
		return p, nil, nil, fmt.Errorf("hash has wrong parts")
	}

	var version int
	if _, err = fmt.Sscanf(vals[2], "v=%d", &version); err != nil {
		return p, nil, nil, err
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("incompatible version %d", version)
	}

	if _, err = fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, err
	}
	if p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, fmt.Errorf("invalid argon2 parameters")
	}

	if salt, err = base64.RawStdEncoding.DecodeString(vals[4]); err != nil {
		return p, nil, nil, err
	}
	if key, err = base64.RawStdEncoding.DecodeString(vals[5]); err != nil {
		return p, nil, nil, err
	}
	if len(key) == 0 {
		return p, nil, nil, fmt.Errorf("empty key")
	}
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}

// MultiHasher writes new hashes with one algorithm and verifies hashes written
// by any supported algorithm, choosing by the stored hash prefix.
type MultiHasher struct {
	writer PasswordHasher
	bcrypt *BcryptHasher
	argon  *Argon2Hasher
}

// NewPasswordHasher returns a hasher that writes with algorithm ("bcrypt" or
// "argon2id"). cost applies to newly written bcrypt hashes; existing bcrypt
// hashes verify at whatever cost they were created with.
func NewPasswordHasher(algorithm string, cost int) (*MultiHasher, error) {
	m := &MultiHasher{
		bcrypt: NewBcryptHasher(cost),
		argon:  NewArgon2Hasher(DefaultArgon2Params),
	}
	switch algorithm {
	case AlgorithmBcrypt, "":
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
		}
		m.writer = m.bcrypt
	case AlgorithmArgon2id:
		m.writer = m.argon
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
	return m, nil
}

func (m *MultiHasher) Hash(plain string) (string, error) {
	return m.writer.Hash(plain)
}

func (m *MultiHasher) Verify(plain, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return m.argon.Verify(plain, hash)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return m.bcrypt.Verify(plain, hash)
	default:
		return false
	}
}
