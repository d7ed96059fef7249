package utils

import (
	"fmt"
	"freelyforms-backend/config"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func GenerateToken(userID string, roles []string) (string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"roles":   roles,
		"exp":     time.Now().Add(cfg.TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

func ValidateToken(tokenString string) (jwt.MapClaims, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ClaimUserID returns the user_id claim, or false when it is missing.
func ClaimUserID(claims jwt.MapClaims) (string, bool) {
	id, ok := claims["user_id"].(string)
	return id, ok && id != ""
}

// ClaimRoles returns the roles claim. Unknown shapes yield no roles.
func ClaimRoles(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"].([]interface{})
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// ClaimExpiry returns how long the token stays valid, or false when the exp
// claim is absent.
func ClaimExpiry(claims jwt.MapClaims) (time.Duration, bool) {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	return time.Until(exp.Time), true
}

func ExtractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is required")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", fmt.Errorf("bearer token not found")
	}

	return strings.TrimPrefix(authHeader, bearerPrefix), nil
}
