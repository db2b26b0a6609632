package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenSigner mints and verifies HMAC-signed download tokens so export
// artifacts can be fetched without re-authenticating. A token binds a job id
// to an artifact path and carries its own expiry.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner builds a signer; ttl defaults to 24h.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}
}

// Sign returns a token for the (job, artifact) pair and its expiry.
func (s *TokenSigner) Sign(jobID, artifact string) (string, time.Time, error) {
	if jobID == "" || artifact == "" {
		return "", time.Time{}, fmt.Errorf("job id and artifact required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}

	expiresAt := time.Now().Add(s.ttl)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(artifact))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{jobID, exp, encoded, s.mac(jobID, exp, encoded)}, ".")
	return token, expiresAt, nil
}

// Verify checks a token's signature and expiry and returns the embedded
// job id and artifact path.
func (s *TokenSigner) Verify(token string) (jobID, artifact string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	jobID, exp, encoded, sig := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(jobID, exp, encoded)), []byte(sig)) {
		return "", "", time.Time{}, fmt.Errorf("bad token signature")
	}

	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("bad token timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)
	if time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode artifact path: %w", err)
	}
	return jobID, string(raw), expiresAt, nil
}

func (s *TokenSigner) mac(jobID, exp, encoded string) string {
	h := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(h, "%s|%s|%s", jobID, exp, encoded)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
