// Package auth issues and validates the access tokens that identify an
// actor (user id plus role) to the transport layer.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

// Claims carries the registered claims plus the actor identity. The role
// is embedded at issue time so authorization does not need a directory
// lookup per request.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

// GenerateToken signs an HS256 access token for the given user.
func GenerateToken(userID string, role models.Role, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Role:   string(role),
	})

	return token.SignedString(secretKey)
}

// ActorFromToken validates tokenString and returns the actor it encodes.
// Expired tokens fail with common.ErrTokenExpired, anything else invalid
// with common.ErrInvalidToken.
func ActorFromToken(tokenString string, secretKey []byte) (models.Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Actor{}, common.ErrTokenExpired
		}
		return models.Actor{}, common.ErrInvalidToken
	}

	if !token.Valid {
		return models.Actor{}, common.ErrInvalidToken
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Actor{}, common.ErrInvalidToken
	}
	if claims.UserID == "" {
		return models.Actor{}, common.ErrInvalidToken
	}

	return models.Actor{ID: claims.UserID, Role: role}, nil
}
