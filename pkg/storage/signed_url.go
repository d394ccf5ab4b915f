package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// Grant is the content of a download token: which stored file it opens and until when.
type Grant struct {
	ID        string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues and checks HMAC-signed download tokens of the form
// id.expiry.base64(path).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A non-positive ttl means 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token granting access to relPath.
func (s *SignedURLSigner) Sign(id, relPath string) (string, Grant, error) {
	if id == "" || relPath == "" {
		return "", Grant{}, fmt.Errorf("%w: id and path required", ErrTokenMalformed)
	}
	if len(s.secret) == 0 {
		return "", Grant{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{id, ts, encodedPath, s.mac(id, ts, encodedPath)}, ".")
	return token, Grant{ID: id, Path: relPath, ExpiresAt: expiresAt}, nil
}

// Verify checks signature and expiry.
func (s *SignedURLSigner) Verify(token string) (Grant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0] == "" {
		return Grant{}, ErrTokenMalformed
	}
	id, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: bad expiry", ErrTokenMalformed)
	}
	if !hmac.Equal([]byte(s.mac(id, ts, encodedPath)), []byte(signature)) {
		return Grant{}, ErrTokenSignature
	}
	grant := Grant{ID: id, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(grant.ExpiresAt) {
		return Grant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) mac(id, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
