package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/logging"
	"github.com/mvoronin/parceltrack/internal/server/auth"
	"github.com/mvoronin/parceltrack/internal/server/models"
	"github.com/mvoronin/parceltrack/internal/server/repositories/refreshtokens"
	"github.com/mvoronin/parceltrack/internal/server/repositories/users"
)

const (
	saltSize         = 16
	refreshTokenSize = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService handles registration, login and refresh-token rotation.
type UserService struct {
	users                        users.Repository
	refreshTokens                refreshtokens.Repository
	secretKey                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
}

func NewUserService(ur users.Repository, rr refreshtokens.Repository, secretKey []byte,
	accessValidity, refreshValidity time.Duration, logger logging.Logger) *UserService {
	return &UserService{
		users:                        ur,
		refreshTokens:                rr,
		secretKey:                    secretKey,
		accessTokenValidityDuration:  accessValidity,
		refreshTokenValidityDuration: refreshValidity,
		logger:                       logger.With("module", "user_service"),
	}
}

func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// Register creates a directory entry with the given role. The password is
// stretched with argon2id under a per-user random salt.
func (s *UserService) Register(ctx context.Context, userName, password string, role models.Role) (*models.User, error) {

	if userName == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	salt := common.GenerateRandByteArray(saltSize)

	user, err := s.users.Create(ctx, &models.User{
		UserName:     userName,
		Role:         role,
		Salt:         salt,
		PasswordHash: hashPassword(password, salt),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", string(role))
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown users and
// wrong passwords fail identically with common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, userName, password string) (*TokenPair, error) {

	user, err := s.users.GetByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	hash := hashPassword(password, user.Salt)
	if subtle.ConstantTimeCompare(hash, user.PasswordHash) != 1 {
		s.logger.Warn(ctx, "login rejected", "user_id", user.ID)
		return nil, common.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a refresh token for a fresh pair. The presented token
// is deleted first, so it can only be spent once; an expired token fails
// with common.ErrTokenExpired.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {

	stored, err := s.refreshTokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	if err := s.refreshTokens.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, common.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *UserService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {

	accessToken, err := auth.GenerateToken(user.ID, user.Role, s.secretKey, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	refreshToken, err := common.MakeRandHexString(refreshTokenSize)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokens.Add(ctx, &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.refreshTokenValidityDuration),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
