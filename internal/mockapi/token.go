package mockapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token is invalid")

// Payload 驗證後的 token 內容
type Payload struct {
	UserID    string
	Role      constants.Role
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenMaker HS256 簽發與驗證
type TokenMaker struct {
	secret []byte
}

func NewTokenMaker(secret string) (*TokenMaker, error) {
	if len(secret) < 8 {
		return nil, fmt.Errorf("jwt secret must be at least 8 characters")
	}
	return &TokenMaker{secret: []byte(secret)}, nil
}

func (m *TokenMaker) CreateToken(userID string, role constants.Role, duration time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenMaker) VerifyToken(token string) (*Payload, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Payload{
		UserID:    claims.Subject,
		Role:      constants.Role(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
