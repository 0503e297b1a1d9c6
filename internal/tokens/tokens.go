// Package tokens mints and verifies the signed session credentials. Access
// and refresh tokens are signed with distinct secrets and carry a typ claim,
// so a refresh token can never be replayed as an access token. Verification
// is stateless; the store-binding check for refresh tokens lives in the
// session service.
package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

func (i *Issuer) IssueAccess(userID uint) (string, time.Time, error) {
	return i.sign(userID, TypeAccess, i.AccessSecret, i.AccessTTL)
}

func (i *Issuer) IssueRefresh(userID uint) (string, time.Time, error) {
	return i.sign(userID, TypeRefresh, i.RefreshSecret, i.RefreshTTL)
}

func (i *Issuer) sign(userID uint, typ string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (i *Issuer) VerifyAccess(tokenStr string) (uint, error) {
	return verify(tokenStr, TypeAccess, i.AccessSecret)
}

func (i *Issuer) VerifyRefresh(tokenStr string) (uint, error) {
	return verify(tokenStr, TypeRefresh, i.RefreshSecret)
}

func verify(tokenStr, expectedType string, secret []byte) (uint, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrInvalidToken
	}
	if !tkn.Valid || claims.TokenType != expectedType {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
