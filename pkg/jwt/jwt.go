package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"seungpyo.lee/MemoryJournal/pkg/session"
)

// ErrTokenExpired is returned when a token has expired.
var ErrTokenExpired = errors.New("token is expired")

// ErrTokenRevoked is returned when a token was revoked before it expired.
var ErrTokenRevoked = errors.New("token is revoked")

// ErrRevocationCheck is returned when the blacklist cannot be consulted. It is
// a storage failure, not a verdict on the token.
var ErrRevocationCheck = errors.New("failed to check token revocation")

// Claims defines the session claims issued by the identity provider.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwtlib.RegisteredClaims
}

// Session returns the identity carried by the claims.
func (c *Claims) Session() session.Session {
	return session.Session{UserID: c.UserID, Name: c.Name}
}

// TokenManager provides methods for issuing, validating, and revoking session tokens.
type TokenManager interface {
	GenerateToken(userID, name string, ttl time.Duration) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
	RevokeToken(ctx context.Context, tokenString string) error
	IsTokenRevoked(ctx context.Context, tokenString string) (bool, error)
}

// NewTokenManager creates a new TokenManager with the given secret key and Redis client.
func NewTokenManager(secretKey string, redisClient *redis.Client) TokenManager {
	return &tokenManager{secretKey: secretKey, redis: redisClient}
}

// NewTokenManagerWithoutRedis creates a TokenManager without a revocation blacklist.
func NewTokenManagerWithoutRedis(secretKey string) TokenManager {
	return &tokenManager{secretKey: secretKey}
}

// tokenManager implements TokenManager with Redis for the blacklist.
type tokenManager struct {
	secretKey string
	redis     *redis.Client
}

// GenerateToken signs a session token. The identity provider owns issuance in production;
// this exists for local tooling and tests that share the secret.
func (j *tokenManager) GenerateToken(userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ValidateToken parses the token, checks its signature and expiry, and consults the blacklist.
func (j *tokenManager) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	revoked, err := j.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRevocationCheck, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RevokeToken stores the token in the Redis blacklist until it would have expired.
func (j *tokenManager) RevokeToken(ctx context.Context, tokenString string) error {
	if j.redis == nil {
		return errors.New("redis client not configured")
	}
	claims, err := j.parse(tokenString)
	if err != nil {
		return fmt.Errorf("invalid token for revocation: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil // already expired
	}
	return j.redis.Set(ctx, j.redisKey(tokenString), "revoked", ttl).Err()
}

// IsTokenRevoked checks if the token is blacklisted in Redis.
func (j *tokenManager) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	if j.redis == nil {
		return false, nil
	}
	res, err := j.redis.Exists(ctx, j.redisKey(tokenString)).Result()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (j *tokenManager) parse(tokenString string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// redisKey generates a Redis key for a session token.
func (j *tokenManager) redisKey(tokenString string) string {
	return "session:blacklist:" + tokenString
}
