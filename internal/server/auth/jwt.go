// Package auth issues and verifies the service's access and refresh tokens
// and hashes passwords.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/raselkhaanlab/accounts/internal/common"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the JWT payload. Subject carries the user id; ID (jti) is random
// for every token so two tokens issued in the same second still differ.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Issuer signs tokens with HS256. Access and refresh tokens use separate keys
// and lifetimes.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssuePair mints a fresh access/refresh pair for userID.
func (i *Issuer) IssuePair(userID string) (*TokenPair, error) {
	now := i.now()

	access, accessExp, err := i.sign(userID, TypeAccess, i.accessSecret, now, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := i.sign(userID, TypeRefresh, i.refreshSecret, now, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(userID, typ string, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: typ,
	})

	s, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// VerifyAccess returns the user id carried by a valid access token.
// It fails with common.ErrTokenExpired or common.ErrTokenInvalid.
func (i *Issuer) VerifyAccess(token string) (string, error) {
	claims, err := i.parse(token, TypeAccess, i.accessSecret)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyRefresh validates a refresh token and returns its claims.
func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.parse(token, TypeRefresh, i.refreshSecret)
}

func (i *Issuer) parse(tokenString, typ string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, common.NewError(common.KindTokenInvalid, "token is required")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.WrapError(common.KindTokenExpired, "token expired", err)
		}
		return nil, common.WrapError(common.KindTokenInvalid, "invalid token", err)
	}

	if !token.Valid || claims.Type != typ || claims.Subject == "" {
		return nil, common.ErrTokenInvalid
	}

	return claims, nil
}

// HashToken is the form a refresh token is stored in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
