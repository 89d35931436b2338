package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ahsanfayaz52/notesservice/internal/models"
)

// TokenTTL matches the lifetime of the session cookie.
const TokenTTL = 72 * time.Hour

type JWTService struct {
	secretKey string
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secretKey: secret}
}

func (j *JWTService) GenerateToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"nickname": user.Nickname,
		"email":    user.Email,
		"exp":      time.Now().Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ValidateToken returns the identity carried by the token. The password field
// is never populated.
func (j *JWTService) ValidateToken(tokenStr string) (models.User, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.User{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.User{}, errors.New("invalid claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return models.User{}, errors.New("invalid user_id")
	}
	nickname, ok := claims["nickname"].(string)
	if !ok || nickname == "" {
		return models.User{}, errors.New("invalid nickname")
	}
	email, _ := claims["email"].(string)

	return models.User{ID: int64(userIDFloat), Nickname: nickname, Email: email}, nil
}
