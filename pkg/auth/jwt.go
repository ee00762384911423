package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig JWT配置
type JWTConfig struct {
	Secret     string
	ExpireTime time.Duration
}

// ValidateToken 校验JWT token
func ValidateToken(token, secret string) bool {
	if token == "" {
		return false
	}

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		// 校验签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	return err == nil && parsedToken != nil && parsedToken.Valid
}

// GenerateJWT 生成JWT token
func GenerateJWT(claims map[string]any, cfg *JWTConfig) (string, error) {
	jwtClaims := jwt.MapClaims{}
	for k, v := range claims {
		jwtClaims[k] = v
	}

	if _, exists := jwtClaims["exp"]; !exists {
		expire := cfg.ExpireTime
		if expire <= 0 {
			expire = time.Hour
		}
		jwtClaims["exp"] = time.Now().Add(expire).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)
	return token.SignedString([]byte(cfg.Secret))
}
