// Package session tracks the active user. The session itself is the
// currentUser blob, restored at startup and cleared on logout; JWT access
// tokens authenticate individual API requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alex-l-clark/task-manager/internal/storage"
)

const tokenIssuer = "task-manager"

var ErrNoSession = errors.New("no active session")

type Manager struct {
	blob   storage.Blob
	secret []byte
	ttl    time.Duration
}

type sessionRecord struct {
	Username string `json:"username"`
}

func NewManager(blob storage.Blob, secret string, ttl time.Duration) *Manager {
	return &Manager{blob: blob, secret: []byte(secret), ttl: ttl}
}

// Current returns the username stored in the session blob, or
// ErrNoSession when nobody is logged in.
func (m *Manager) Current(ctx context.Context) (string, error) {
	data, err := m.blob.Load(ctx, storage.KeyCurrentUser)
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("failed to read session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Username == "" {
		return "", ErrNoSession
	}
	return rec.Username, nil
}

// Begin records username as the active session.
func (m *Manager) Begin(ctx context.Context, username string) error {
	data, err := json.Marshal(sessionRecord{Username: username})
	if err != nil {
		return err
	}
	if err := m.blob.Save(ctx, storage.KeyCurrentUser, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// End clears the session blob. Task data is untouched.
func (m *Manager) End(ctx context.Context) error {
	if err := m.blob.Delete(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// IssueToken signs an access token for username.
func (m *Manager) IssueToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iss": tokenIssuer,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken validates an access token and returns the username it was
// issued for.
func (m *Manager) ParseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenExpired
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	if iss, _ := claims["iss"].(string); iss != tokenIssuer {
		return "", errors.New("invalid token issuer")
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", errors.New("token missing subject")
	}
	return username, nil
}
