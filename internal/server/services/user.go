// Package services contains server-side business logic. This file implements
// UserService, which handles registration, sign-in, token refresh and
// sign-out on top of the session provider.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/dbx"
	"github.com/dmitrijs2005/travelbuddy/internal/server/auth"
	"github.com/dmitrijs2005/travelbuddy/internal/server/config"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/travelbuddy/internal/server/session"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
}

// Identity is the authenticated caller behind an access token.
type Identity struct {
	UserID    string
	SessionID string
}

// SessionProvider is the part of session.Provider the user service needs.
type SessionProvider interface {
	SignIn(ctx context.Context, userID string) (*session.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (*session.Session, error)
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials, open a session and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Authenticate: resolve an access token to a live session
// - Logout: revoke tokens and end the session
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	sessions                     SessionProvider
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions SessionProvider, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		sessions:                     sessions,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   bcrypt.DefaultCost,
	}
}

// Register creates a new account. Emails are case-insensitive.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and, on success, opens a session and
// returns a new TokenPair for it.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same time as a real comparison
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	sess, err := s.sessions.SignIn(ctx, user.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return s.generateTokenPair(ctx, user.ID, sess.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair for the same session. Expired tokens yield
// ErrRefreshTokenExpired; tokens whose session has ended are unauthorized.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	sess, err := s.sessions.Current(ctx, token.SessionID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if sess == nil {
		_ = repo.Delete(ctx, refreshToken)
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, token.SessionID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Authenticate resolves an access token to the identity it was issued for.
// The token must be valid and its session must still be signed in.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Current(ctx, claims.SessionID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if sess == nil || sess.UserID != claims.UserID {
		return nil, common.ErrorUnauthorized
	}

	return &Identity{UserID: claims.UserID, SessionID: claims.SessionID}, nil
}

// Logout revokes every refresh token of the session and signs it out.
func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.DeleteBySession(ctx, sessionID); err != nil {
		return fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	if err := s.sessions.SignOut(ctx, sessionID); err != nil {
		return fmt.Errorf("error signing out: %w", err)
	}
	return nil
}

// --- helpers below ---

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	return email, nil
}

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("travelbuddy-dummy-password"), bcrypt.DefaultCost)
	return h
})

func (s *UserService) generateAccessToken(userID, sessionID string) (string, error) {
	return auth.GenerateToken(userID, sessionID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID, sessionID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID, sessionID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, sessionID, refresh, time.Now().Add(s.refreshTokenValidityDuration)); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, SessionID: sessionID}, nil
}
