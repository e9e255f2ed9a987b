package security

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims 身份提供方签发的访问令牌
type SupabaseClaims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// DisplayName 取 user_metadata 中的 name 或 full_name
func (c *SupabaseClaims) DisplayName() string {
	for _, k := range []string{"name", "full_name"} {
		if v, ok := c.UserMetadata[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// TokenVerifier 非对称令牌走 JWKS，HS256 令牌走共享密钥
type TokenVerifier struct {
	jwks       *JWKSCache
	hmacSecret []byte
	parser     *jwt.Parser
}

func NewTokenVerifier(jwks *JWKSCache, jwtSecret string) *TokenVerifier {
	return &TokenVerifier{
		jwks:       jwks,
		hmacSecret: decodeSecret(jwtSecret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"ES256", "RS256", "HS256"}),
			jwt.WithExpirationRequired(),
		),
	}
}

// decodeSecret 密钥若是合法 base64 则使用解码后的字节
func decodeSecret(secret string) []byte {
	if secret == "" {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(secret); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(secret)
}

func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*SupabaseClaims, error) {
	claims := &SupabaseClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); ok {
			if len(v.hmacSecret) == 0 {
				return nil, errors.New("HS256 tokens are not accepted")
			}
			return v.hmacSecret, nil
		}
		if v.jwks == nil {
			return nil, errors.New("JWKS not configured")
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid")
		}
		return v.jwks.Key(ctx, kid)
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
