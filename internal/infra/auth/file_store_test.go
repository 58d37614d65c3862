// File: internal/infra/auth/file_store_test.go
package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"agentloop-chat/internal/domain/ports/adapter"
	"agentloop-chat/internal/infra/security"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "creds.json"), nil)

	creds, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !creds.Empty() {
		t.Fatalf("fresh store returned %+v", creds)
	}

	want := adapter.Credentials{Access: "acc", Refresh: "ref"}
	if err := store.Save(want); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	got, err = store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !got.Empty() {
		t.Fatalf("after clear: %+v", got)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
}

func TestFileStoreEncrypted(t *testing.T) {
	cipher, err := security.NewCipher("0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "creds.json")
	store := NewFileStore(path, cipher)

	want := adapter.Credentials{Access: "acc", Refresh: "ref"}
	if err := store.Save(want); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "acc") {
		t.Fatal("tokens stored in plaintext")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v", got)
	}
}

func TestAccessExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := AccessExpiry(token)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(exp) {
		t.Fatalf("got %v, want %v", got, exp)
	}
}

func TestAccessExpiryNoClaim(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).
		SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := AccessExpiry(token); err == nil {
		t.Fatal("want error for missing exp")
	}
}

func TestAccessExpiryGarbage(t *testing.T) {
	if _, err := AccessExpiry("not-a-jwt"); err == nil {
		t.Fatal("want parse error")
	}
}
