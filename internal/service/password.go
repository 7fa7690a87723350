package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no user or no password credential
// exists, so a miss costs the same as a mismatch.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("authsvc-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return h
}()

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password too short")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func verifyPassword(hash *string, password string) bool {
	stored := dummyHash
	if hash != nil {
		stored = []byte(*hash)
	}
	ok := bcrypt.CompareHashAndPassword(stored, []byte(password)) == nil
	return ok && hash != nil
}
