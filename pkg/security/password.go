// Package security hashes registered users' passwords with argon2id.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

const hashScheme = "argon2id"

var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// ArgonParams travel inside every encoded hash, so old hashes still verify
// after the configured cost changes.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps configured values into a safe range.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func (p ArgonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

// HashPassword returns the PHC string $argon2id$v=19$m=..,t=..,p=..$salt$key.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	params := ParamsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return strings.Join([]string{
		"",
		hashScheme,
		fmt.Sprintf("v=%d", argon2.Version),
		fmt.Sprintf("m=%d,t=%d,p=%d", params.Memory, params.Time, params.Parallelism),
		b64.EncodeToString(salt),
		b64.EncodeToString(params.derive(password, salt)),
	}, "$"), nil
}

func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h.key, h.params.derive(password, h.salt)) == 1, nil
}

type parsedHash struct {
	params    ArgonParams
	salt, key []byte
}

func parseHash(encoded string) (parsedHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != hashScheme {
		return parsedHash{}, ErrInvalidHash
	}
	version, cost, salt64, key64 := fields[2], fields[3], fields[4], fields[5]

	var v int
	if _, err := fmt.Sscanf(version, "v=%d", &v); err != nil || v != argon2.Version {
		return parsedHash{}, ErrInvalidHash
	}
	var h parsedHash
	if _, err := fmt.Sscanf(cost, "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Parallelism); err != nil {
		return parsedHash{}, ErrInvalidHash
	}
	var err error
	if h.salt, err = b64.DecodeString(salt64); err != nil {
		return parsedHash{}, ErrInvalidHash
	}
	if h.key, err = b64.DecodeString(key64); err != nil || len(h.key) == 0 {
		return parsedHash{}, ErrInvalidHash
	}
	h.params.SaltLen = uint32(len(h.salt))
	h.params.KeyLen = uint32(len(h.key))
	return h, nil
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}
