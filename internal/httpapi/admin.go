package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

var ErrWrongPassword = errors.New("wrong admin password")

const AdminPasswordHeader = "X-Admin-Password"

// AdminGate checks the shared admin password. Only the bcrypt hash is kept;
// a gate built from an empty password rejects everything.
type AdminGate struct {
	hash []byte
}

func NewAdminGate(password string, cost int) (*AdminGate, error) {
	if password == "" {
		return &AdminGate{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AdminGate{hash: hash}, nil
}

func (g *AdminGate) Check(password string) error {
	if len(g.hash) == 0 || password == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

func (g *AdminGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Check(r.Header.Get(AdminPasswordHeader)); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
