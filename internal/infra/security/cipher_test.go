// File: internal/infra/security/cipher_test.go
package security

import (
	"testing"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher("0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := c.Seal([]byte("token pair"))
	if err != nil {
		t.Fatal(err)
	}
	if sealed == "token pair" {
		t.Fatal("not encrypted")
	}
	pt, err := c.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if string(pt) != "token pair" {
		t.Fatalf("got %q", pt)
	}
}

func TestCipherNonceVaries(t *testing.T) {
	c, _ := NewCipher("0123456789abcdef0123456789abcdef")
	a, _ := c.Seal([]byte("same"))
	b, _ := c.Seal([]byte("same"))
	if a == b {
		t.Fatal("identical ciphertexts for identical plaintexts")
	}
}

func TestCipherBadKeyLength(t *testing.T) {
	if _, err := NewCipher("short"); err == nil {
		t.Fatal("want key length error")
	}
}

func TestCipherTamperDetected(t *testing.T) {
	c, _ := NewCipher("0123456789abcdef")
	sealed, _ := c.Seal([]byte("payload"))
	if _, err := c.Open(sealed[:len(sealed)-4] + "AAAA"); err == nil {
		t.Fatal("tampered ciphertext accepted")
	}
	if _, err := c.Open("!!not base64!!"); err == nil {
		t.Fatal("want decode error")
	}
	if _, err := c.Open("c2hvcnQ="); err == nil {
		t.Fatal("want short ciphertext error")
	}
}
