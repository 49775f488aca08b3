package jwt

import (
	"errors"
	"fmt"
	"time"

	"recipe-vault/domain"

	"github.com/golang-jwt/jwt/v4"
)

type (
	JWTService interface {
		GenerateToken(userID string) (string, error)
		ValidateToken(token string) (*jwt.Token, error)
		GetUserIDByToken(token string) (string, error)
	}

	jwtUserClaim struct {
		UserID string `json:"user_id"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		ttl       time.Duration
	}
)

func NewJWTService(secretKey, issuer string, ttl time.Duration) JWTService {
	return &jwtService{
		secretKey: secretKey,
		issuer:    issuer,
		ttl:       ttl,
	}
}

func (j *jwtService) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwtUserClaim{
		userID,
		jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateToken(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &jwtUserClaim{}, j.parseToken)
}

func (j *jwtService) GetUserIDByToken(token string) (string, error) {
	parsed, err := j.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return "", domain.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwtUserClaim)
	if !ok || claims.UserID == "" || claims.Issuer != j.issuer {
		return "", domain.ErrTokenInvalid
	}
	return claims.UserID, nil
}
