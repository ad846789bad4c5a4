package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Service struct {
	store  Store
	hasher Hasher
	tokens *TokenService
}

func NewService(store Store, hasher Hasher, tokens *TokenService) *Service {
	return &Service{store: store, hasher: hasher, tokens: tokens}
}

// Register creates an account and mints its first token. The duplicate
// pre-checks run before the insert; the store's unique constraints catch
// the window between check and insert.
func (s *Service) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	taken, err := s.store.UsernameExists(ctx, input.Username)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return AuthResult{}, ErrDuplicateUsername
	}

	taken, err = s.store.EmailExists(ctx, input.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return AuthResult{}, ErrDuplicateEmail
	}

	account, err := s.store.Create(ctx, Account{
		Username:       input.Username,
		Email:          input.Email,
		PasswordDigest: s.hasher.Digest(input.Password),
		FullName:       input.FullName,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
			return AuthResult{}, err
		}
		return AuthResult{}, fmt.Errorf("create account: %w", err)
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{Token: token, Username: account.Username, Email: account.Email}, nil
}

// Login verifies the credentials and mints a fresh token. An unknown
// username and a wrong password both yield ErrInvalidCredentials so the
// response cannot be used to enumerate usernames. An inactive account
// with correct credentials is reported distinctly.
func (s *Service) Login(ctx context.Context, username, password string) (AuthResult, error) {
	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find account: %w", err)
	}

	if !digestsEqual(account.PasswordDigest, s.hasher.Digest(password)) {
		return AuthResult{}, ErrInvalidCredentials
	}

	if !account.IsActive {
		return AuthResult{}, ErrAccountInactive
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{Token: token, Username: account.Username, Email: account.Email}, nil
}

var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is inactive")
)
