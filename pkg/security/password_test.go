package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("frosting123", testPasswordConfig)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Fatalf("unexpected hash format %s", hash)
	}

	ok, err := VerifyPassword("frosting123", hash)
	if err != nil || !ok {
		t.Fatalf("expected password to verify, ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("sprinkles", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, _ := HashPassword("same-password", testPasswordConfig)
	second, _ := HashPassword("same-password", testPasswordConfig)
	if first == second {
		t.Fatal("expected distinct salts per hash")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", testPasswordConfig); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"$bcrypt$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!$aGFzaA",
	} {
		if _, err := VerifyPassword("pw", encoded); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}

func TestParamsFromConfigClamps(t *testing.T) {
	params := ParamsFromConfig(config.PasswordConfig{})
	if params.Memory != 8 || params.Time != 1 || params.Parallelism != 1 || params.SaltLen != 8 || params.KeyLen != 16 {
		t.Fatalf("unexpected clamped params %+v", params)
	}
}
