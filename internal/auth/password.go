package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password at the given bcrypt cost.
// Costs outside bcrypt's supported range fall back to the library
// default rather than failing registration on a misconfigured env.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword verifies a plaintext password against its stored
// hash.
func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
