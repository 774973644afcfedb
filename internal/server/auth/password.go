package auth

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt with a fixed cost.
type Hasher struct {
	cost  int
	dummy []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, bcrypt.InvalidCostError(cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether password matches hash. An empty hash is compared
// against a throwaway hash of the same cost, so callers spend the same time
// whether or not an account was found.
func (h *Hasher) Compare(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
