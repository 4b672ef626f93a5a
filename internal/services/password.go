package services

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/gtd-backend/internal/platform/apperr"
)

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash. bcrypt compares in
// constant time.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnPasswordCompare spends the same time as a real compare so unknown emails
// are not distinguishable by latency.
func burnPasswordCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
