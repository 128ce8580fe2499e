// Package password hashes operator passwords with Argon2id and detects
// stored hashes that were produced with weaker settings.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/frontdesk/internal/config"
	"golang.org/x/crypto/argon2"
)

const algorithm = "argon2id"

var (
	ErrMalformedHash      = errors.New("malformed password hash")
	ErrIncompatibleHash   = errors.New("incompatible argon2 version")
	ErrInvalidCostSetting = errors.New("invalid argon2 cost setting")
)

// Params are the Argon2id costs applied to newly hashed operator passwords.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams sit at the OWASP baseline for an interactive login
// (19 MiB, two passes, single lane).
func DefaultParams() Params {
	return Params{
		MemoryKiB:   19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Params) validate() error {
	switch {
	case p.Iterations == 0, p.Parallelism == 0:
		return ErrInvalidCostSetting
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return ErrInvalidCostSetting
	case p.SaltLength < 8, p.KeyLength < 16:
		return ErrInvalidCostSetting
	}
	return nil
}

// weakerThan reports whether any cost in p is below target.
func (p Params) weakerThan(target Params) bool {
	return p.MemoryKiB < target.MemoryKiB ||
		p.Iterations < target.Iterations ||
		p.Parallelism < target.Parallelism ||
		p.KeyLength < target.KeyLength
}

// Hasher hashes with fixed Params. A nil Hasher uses DefaultParams.
type Hasher struct {
	params Params
}

func NewHasher(p Params) (*Hasher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: p}, nil
}

// Provide reads the operator hashing costs from config. Zero values keep the
// defaults.
func Provide(cfg config.Config) (*Hasher, error) {
	p := DefaultParams()
	if cfg.Auth.ArgonMemoryKiB > 0 {
		p.MemoryKiB = uint32(cfg.Auth.ArgonMemoryKiB)
	}
	if cfg.Auth.ArgonIterations > 0 {
		p.Iterations = uint32(cfg.Auth.ArgonIterations)
	}
	if cfg.Auth.ArgonParallelism > 0 {
		if cfg.Auth.ArgonParallelism > 255 {
			return nil, ErrInvalidCostSetting
		}
		p.Parallelism = uint8(cfg.Auth.ArgonParallelism)
	}
	return NewHasher(p)
}

func (h *Hasher) Params() Params {
	if h == nil {
		return DefaultParams()
	}
	return h.params
}

// Hash returns the PHC string stored in operators.password_hash.
func (h *Hasher) Hash(plain string) (string, error) {
	p := h.Params()
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
	return encode(p, salt, key), nil
}

// Verify checks plain against encoded. needsRehash is true when the match
// succeeded but the stored costs are below the hasher's.
func (h *Hasher) Verify(plain, encoded string) (ok bool, needsRehash bool) {
	stored, salt, key, err := decode(encoded)
	if err != nil {
		return false, false
	}
	check := argon2.IDKey([]byte(plain), salt, stored.Iterations, stored.MemoryKiB, stored.Parallelism, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, check) != 1 {
		return false, false
	}
	return true, stored.weakerThan(h.Params())
}

func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm, argon2.Version,
		p.MemoryKiB, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(encoded string) (Params, []byte, []byte, error) {
	// "", algorithm, version, costs, salt, key
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != algorithm {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return Params{}, nil, nil, ErrIncompatibleHash
	}

	var p Params
	var memory, iterations, parallelism uint64
	n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil || n != 3 || fmt.Sprintf("m=%d,t=%d,p=%d", memory, iterations, parallelism) != fields[3] {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if memory == 0 || memory > 1<<32-1 || iterations == 0 || iterations > 1<<32-1 || parallelism == 0 || parallelism > 255 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	p.MemoryKiB = uint32(memory)
	p.Iterations = uint32(iterations)
	p.Parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.Strict().DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
