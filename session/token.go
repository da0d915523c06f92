package session

import (
	"errors"
	"fmt"
	"time"

	"echonest/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long a minted session token stays valid.
const TokenTTL = 24 * time.Hour

type Claims struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarURL,omitempty"`
	jwt.RegisteredClaims
}

// Mint signs a session token for the given identity.
func Mint(secret string, s models.Session) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    s.UserID,
		Name:      s.Name,
		AvatarURL: s.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates a token string and returns the session it carries.
func Parse(secret, tokenString string) (*models.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid session token")
	}

	return &models.Session{
		UserID:    claims.UserID,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
	}, nil
}
