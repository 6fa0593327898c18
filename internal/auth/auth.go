// Package auth issues and verifies the bearer credentials carrying a role
// claim. Authentication (who the actor is) lives here; authorization (what a
// role may do) is the workflow engine's job.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/procureflow/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier turns a raw credential into an authenticated Principal. The JWT
// Parser below is one implementation; production deployments plug in a real
// identity provider instead of trusting self-issued role tokens.
type Verifier interface {
	Verify(token string) (model.Principal, error)
}

type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) Issue(p model.Principal) (string, time.Time, error) {
	expiresAt := time.Now().Add(i.ttl)
	claims := Claims{
		Name:  p.Name,
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Verify(raw string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return model.Principal{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{
		UserID: userID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
