package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// ChatTokens issues and checks the bearer tokens that bind a visitor to one
// chat. The token subject is the chat ID.
type ChatTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewChatTokens(secret string, ttl time.Duration) *ChatTokens {
	return &ChatTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *ChatTokens) GenerateJWT(chatID string) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub": chatID,
		"iat": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateJWT returns the chat ID carried by a valid token.
func (t *ChatTokens) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
