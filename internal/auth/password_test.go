package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("correct horse battery", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hashed == "correct horse battery" {
		t.Fatalf("hash must not equal plaintext")
	}
	if err := ComparePassword(hashed, "correct horse battery"); err != nil {
		t.Fatalf("ComparePassword error: %v", err)
	}
	if err := ComparePassword(hashed, "wrong password"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
