package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what the bearer token carries. SessionID is the jti and points
// at the authoritative session row.
type Claims struct {
	Subject   string
	SessionID string
	Role      string
	ExpiresAt time.Time
}

type Signer struct {
	key []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret)}
}

func (s *Signer) Sign(c Claims) (string, error) {
	claims := jwt.MapClaims{
		"sub":  c.Subject,
		"jti":  c.SessionID,
		"role": c.Role,
		"exp":  c.ExpiresAt.Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Verify checks signature and expiry. An expired but otherwise valid token
// yields its claims together with ErrSessionExpired so the caller can clean
// up the session row.
func (s *Signer) Verify(tokenStr string) (Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	expired := err != nil && errors.Is(err, jwt.ErrTokenExpired)
	if tok == nil || (err != nil && !expired) {
		return Claims{}, ErrInvalidToken
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	c := Claims{}
	c.Subject, _ = mapc["sub"].(string)
	c.SessionID, _ = mapc["jti"].(string)
	c.Role, _ = mapc["role"].(string)
	if exp, err := mapc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if c.Subject == "" || c.SessionID == "" {
		return Claims{}, ErrInvalidToken
	}
	if expired {
		return c, ErrSessionExpired
	}
	return c, nil
}
