package users

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier hashes and checks passwords. The domain layer treats
// hashing as opaque; this is the only seam a deployment swaps to change
// algorithms.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(candidate, hash string) bool
}

// dummyHash is compared against when a username does not exist, so the
// response time of an authentication attempt does not reveal whether the
// account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// BcryptVerifier is the default CredentialVerifier.
type BcryptVerifier struct {
	cost int
}

func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{cost: bcrypt.DefaultCost}
}

func (v *BcryptVerifier) Hash(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("users: password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (v *BcryptVerifier) Verify(candidate, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
