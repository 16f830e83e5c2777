package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// adminToken holds only the SHA-256 digest of the shared admin secret
type adminToken struct {
	digest     [sha256.Size]byte
	configured bool
}

func newAdminToken(token, tokenSha256 string) (adminToken, error) {
	if tokenSha256 != "" {
		raw, err := hex.DecodeString(strings.TrimSpace(tokenSha256))
		if err != nil || len(raw) != sha256.Size {
			return adminToken{}, fmt.Errorf("admin token digest must be %d hex characters", 2*sha256.Size)
		}
		var t adminToken
		copy(t.digest[:], raw)
		t.configured = true
		return t, nil
	}
	if token != "" {
		return adminToken{digest: sha256.Sum256([]byte(token)), configured: true}, nil
	}
	return adminToken{}, nil
}

func (t adminToken) matches(candidate string) bool {
	if !t.configured || candidate == "" {
		return false
	}
	sum := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(sum[:], t.digest[:]) == 1
}

// HashToken returns the hex digest to store in ADMIN_TOKEN_SHA256
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authorize checks an admin token. With no token configured every call fails.
func (s *RegistrationService) Authorize(token string) error {
	if !s.admin.matches(token) {
		adminRejections.Inc()
		return ErrUnauthorized
	}
	return nil
}
