package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"math-quiz-service/internal/domain"
)

// Claims is the signed copy of a session handed to the client. Tokens carry no
// expiry; a session ends when it is removed from the store.
type Claims struct {
	IsTeacher   bool   `json:"isTeacher"`
	StudentName string `json:"studentName"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies session tokens with HS256.
type Tokens struct {
	secret []byte
	issuer string
}

func NewTokens(secret, issuer string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth secret not configured")
	}
	return &Tokens{secret: []byte(secret), issuer: issuer}, nil
}

func (t *Tokens) Issue(session domain.Session) (string, error) {
	claims := Claims{
		IsTeacher:   session.IsTeacher,
		StudentName: session.StudentName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:     session.ID,
			Issuer: t.issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and returns the session the token names.
func (t *Tokens) Parse(token string) (domain.Session, error) {
	token = strings.Trim(strings.TrimSpace(token), "\"'")
	if token == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.ID == "" || (t.issuer != "" && claims.Issuer != t.issuer) {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return domain.Session{
		ID:          claims.ID,
		IsTeacher:   claims.IsTeacher,
		StudentName: claims.StudentName,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}
