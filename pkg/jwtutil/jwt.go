package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/pkg/config"
)

// SessionClaims are the claims carried by a session bearer token. The
// backend issues and signs these; Subject is the account id.
type SessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Account converts the claims into a read-only account snapshot.
func (c *SessionClaims) Account() model.Account {
	return model.Account{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
	}
}

// JWTUtil is a utility for session token operations.
type JWTUtil struct {
	config *config.JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *config.JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
	}
}

// GenerateToken creates a signed session token. Only the stub backend uses
// this; against the hosted backend tokens come from its auth endpoint.
func (j *JWTUtil) GenerateToken(accountID, email, name string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := SessionClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses a session token.
func (j *JWTUtil) ValidateToken(tokenString string) (*SessionClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// DecodeClaims parses a session token without verifying its signature.
// Verification is the backend's concern; the client only needs the claims
// to refresh its identity snapshot.
func DecodeClaims(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
