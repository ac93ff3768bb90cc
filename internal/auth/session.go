package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reportflow/internal/models"
	"reportflow/internal/store"
	"reportflow/internal/util"
)

var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrSessionExpired = errors.New("session expired")
	ErrInactiveUser   = errors.New("user not found or inactive")
)

// SessionStore is the slice of store.Store the session manager needs.
type SessionStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type SessionManager struct {
	store         SessionStore
	signer        *Signer
	ttl           time.Duration
	now           func() time.Time
	checkPassword func(hash, pw string) error
}

func NewSessionManager(st SessionStore, signer *Signer, ttl time.Duration) *SessionManager {
	return &SessionManager{store: st, signer: signer, ttl: ttl, now: time.Now, checkPassword: CheckPassword}
}

// dummyHash is compared against when the email is unknown so both login
// failure paths pay for one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("unknown-account-placeholder")
	if err != nil {
		return ""
	}
	return h
})

type Issued struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login checks credentials and opens a session.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Issued, error) {
	u, err := m.store.GetUserByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = m.checkPassword(dummyHash(), password)
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := m.checkPassword(u.PasswordHash, password); err != nil {
		return nil, ErrBadCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return m.Issue(ctx, u)
}

// Issue creates a session row for u and returns the signed bearer token.
func (m *SessionManager) Issue(ctx context.Context, u *models.User) (*Issued, error) {
	sid, err := util.RandomHex(32)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	now := m.now()
	sess := &models.Session{Token: sid, UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	tok, err := m.signer.Sign(Claims{Subject: u.ID, SessionID: sid, Role: string(u.Role), ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Issued{Token: tok, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

// Resolve maps a bearer token to its user. Expired sessions are deleted.
func (m *SessionManager) Resolve(ctx context.Context, bearer string) (*models.User, *models.Session, error) {
	claims, err := m.signer.Verify(bearer)
	if errors.Is(err, ErrSessionExpired) {
		_ = m.store.DeleteSession(ctx, claims.SessionID)
		return nil, nil, ErrSessionExpired
	}
	if err != nil {
		return nil, nil, err
	}
	if !util.IsLikelyHex(claims.SessionID) {
		return nil, nil, ErrInvalidToken
	}
	sess, err := m.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	if sess.UserID != claims.Subject {
		return nil, nil, ErrInvalidToken
	}
	if sess.Expired(m.now()) {
		_ = m.store.DeleteSession(ctx, sess.Token)
		return nil, nil, ErrSessionExpired
	}
	u, err := m.store.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInactiveUser
		}
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, ErrInactiveUser
	}
	return u, sess, nil
}

// Revoke deletes the session; unknown ids are ignored.
func (m *SessionManager) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, sessionID)
}
