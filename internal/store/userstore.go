package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/alex-l-clark/task-manager/internal/auth"
	"github.com/alex-l-clark/task-manager/internal/models"
	"github.com/alex-l-clark/task-manager/internal/storage"
)

// AuthResult messages, shown to the end user verbatim by the presentation
// layer. The wording is part of the contract.
const (
	MsgFieldsRequired   = "Username and password are required"
	MsgUsernameTooShort = "Username must be at least 3 characters long"
	MsgPasswordTooShort = "Password must be at least 6 characters long"
	MsgUsernameTaken    = "Username already exists"
	MsgInvalidUsername  = "Invalid username"
	MsgInvalidPassword  = "Invalid password"
	MsgRegisterSuccess  = "Registration successful"
	MsgLoginSuccess     = "Login successful"
)

// UserStore owns the username to password-hash mapping. Usernames are
// case-sensitive and stored exactly as given; only the emptiness check
// trims.
type UserStore struct {
	mu     sync.RWMutex
	blob   storage.Blob
	users  map[string]string
	hasher *auth.Hasher
}

func NewUserStore(ctx context.Context, blob storage.Blob, hasher *auth.Hasher) (*UserStore, error) {
	s := &UserStore{blob: blob, users: make(map[string]string), hasher: hasher}

	data, err := blob.Load(ctx, storage.KeyUsers)
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return s, nil
		}
		return nil, &PersistenceError{Op: "user load", Err: err}
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		return nil, &PersistenceError{Op: "user load", Err: err}
	}
	return s, nil
}

// persist serializes the whole user map. Called with the write lock held.
func (s *UserStore) persist(ctx context.Context) error {
	data, err := json.Marshal(s.users)
	if err != nil {
		return &PersistenceError{Op: "user map", Err: err}
	}
	if err := s.blob.Save(ctx, storage.KeyUsers, data); err != nil {
		return &PersistenceError{Op: "user map", Err: err}
	}
	return nil
}

// Register validates and creates a new account. Validation failures and
// the duplicate-username conflict come back as an unsuccessful AuthResult;
// the error return is reserved for hashing and persistence failures.
func (s *UserStore) Register(ctx context.Context, username, password string) (models.AuthResult, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return failure(MsgFieldsRequired), nil
	}
	if utf8.RuneCountInString(username) < 3 {
		return failure(MsgUsernameTooShort), nil
	}
	if utf8.RuneCountInString(password) < 6 {
		return failure(MsgPasswordTooShort), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return failure(MsgUsernameTaken), nil
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return models.AuthResult{}, err
	}

	s.users[username] = hashed
	if err := s.persist(ctx); err != nil {
		delete(s.users, username)
		return models.AuthResult{}, err
	}

	return models.AuthResult{
		Success: true,
		Message: MsgRegisterSuccess,
		User:    &models.User{Username: username},
	}, nil
}

// Login checks username and password against the stored hash. An unknown
// username and a wrong password fail with different messages, matching
// the original behavior.
func (s *UserStore) Login(username, password string) models.AuthResult {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return failure(MsgFieldsRequired)
	}

	s.mu.RLock()
	stored, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		return failure(MsgInvalidUsername)
	}
	if !s.hasher.Verify(stored, password) {
		return failure(MsgInvalidPassword)
	}

	return models.AuthResult{
		Success: true,
		Message: MsgLoginSuccess,
		User:    &models.User{Username: username},
	}
}

func failure(message string) models.AuthResult {
	return models.AuthResult{Success: false, Message: message}
}
