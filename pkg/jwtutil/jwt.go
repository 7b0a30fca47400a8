package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	UserType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

type Generator struct {
	secret []byte
	issuer string
	Ttl    time.Duration
}

func NewGenerator(secret []byte, issuer string, ttl time.Duration) *Generator {
	return &Generator{secret: secret, issuer: issuer, Ttl: ttl}
}

// Generate signs a session token and returns it with its jti and expiry.
func (g *Generator) Generate(userID, email, userType string) (string, string, time.Time, error) {
	if len(g.secret) == 0 {
		return "", "", time.Time{}, fmt.Errorf("jwt generator has empty secret")
	}
	now := time.Now()
	exp := now.Add(g.Ttl)
	jti := ulid.Make().String()

	claims := &Claims{
		UserID:   userID,
		Email:    email,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	return signed, jti, exp, err
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer}
}

func (v *Verifier) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	parser := jwt.NewParser(
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
