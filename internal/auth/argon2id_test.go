package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateHash(t *testing.T) {
	hash, err := CreateHash("correct horse battery staple", DefaultParams)
	if err != nil {
		t.Fatalf("failed to create hash: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=2$") {
		t.Errorf("unexpected hash format: %q", hash)
	}

	again, err := CreateHash("correct horse battery staple", DefaultParams)
	if err != nil {
		t.Fatalf("failed to create second hash: %v", err)
	}
	if hash == again {
		t.Error("hashing the same password twice must produce different salts")
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := CreateHash("hunter2", DefaultParams)
	if err != nil {
		t.Fatalf("failed to create hash: %v", err)
	}

	t.Run("matching password", func(t *testing.T) {
		ok, err := ComparePasswordAndHash("hunter2", hash)
		if err != nil {
			t.Fatalf("compare failed: %v", err)
		}
		if !ok {
			t.Error("expected the password to match its own hash")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := ComparePasswordAndHash("hunter3", hash)
		if err != nil {
			t.Fatalf("compare failed: %v", err)
		}
		if ok {
			t.Error("expected a wrong password to be rejected")
		}
	})

	t.Run("mangled hash", func(t *testing.T) {
		if _, err := ComparePasswordAndHash("hunter2", "plainly-not-a-hash"); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("expected ErrInvalidHash, got %v", err)
		}
	})

	t.Run("incompatible version", func(t *testing.T) {
		old := strings.Replace(hash, "v=19", "v=18", 1)
		if _, err := ComparePasswordAndHash("hunter2", old); !errors.Is(err, ErrIncompatibleVersion) {
			t.Errorf("expected ErrIncompatibleVersion, got %v", err)
		}
	})
}
