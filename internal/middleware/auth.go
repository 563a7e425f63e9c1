// Package middleware provides authentication, logging, tracing, metrics and
// rate limiting middleware for the HTTP server.
package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dailybright/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session token parameters.
const (
	TokenIssuer   = "dailybright-api"
	TokenAudience = "dailybright-client"
	TokenTTL      = 7 * 24 * time.Hour

	// SessionCookie carries the token for browser clients.
	SessionCookie = "session"
)

// Claims is the parsed view of a session token.
type Claims struct {
	UserID         uint
	JTI            string
	SessionVersion int64
	ExpiresAt      time.Time
}

// Authenticator issues and verifies session tokens. Revocations are kept in
// Redis when a client is available.
type Authenticator struct {
	secret []byte
	redis  *redis.Client
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator signing with secret.
func NewAuthenticator(secret string, rdb *redis.Client) *Authenticator {
	return &Authenticator{secret: []byte(secret), redis: rdb, now: time.Now}
}

// Issue signs a session token for userID stamped with the user's current
// session version.
func (a *Authenticator) Issue(ctx context.Context, userID uint) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := a.now()
	expires := now.Add(TokenTTL)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": expires.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
		"sv":  a.sessionVersion(ctx, userID),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Parse validates a token string and returns its claims.
func (a *Authenticator) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	claims := &Claims{UserID: uint(userID)}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if jti, ok := mc["jti"].(string); ok {
		claims.JTI = jti
	}
	if sv, ok := mc["sv"].(float64); ok {
		claims.SessionVersion = int64(sv)
	}

	if claims.JTI != "" && a.redis != nil {
		revoked, err := a.redis.Exists(ctx, revokedKey(claims.JTI)).Result()
		if err == nil && revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	if a.redis != nil {
		current, err := a.redis.Get(ctx, sessionVersionKey(claims.UserID)).Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err == nil && current != claims.SessionVersion {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if a.redis == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}
	return a.redis.Set(ctx, revokedKey(claims.JTI), "1", ttl).Err()
}

// RevokeAll invalidates every token issued to userID so far.
func (a *Authenticator) RevokeAll(ctx context.Context, userID uint) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Incr(ctx, sessionVersionKey(userID)).Err()
}

// sessionVersion is 0 until the first RevokeAll, and also when Redis is
// unavailable.
func (a *Authenticator) sessionVersion(ctx context.Context, userID uint) int64 {
	if a.redis == nil {
		return 0
	}
	v, err := a.redis.Get(ctx, sessionVersionKey(userID)).Int64()
	if err != nil {
		return 0
	}
	return v
}

func revokedKey(jti string) string {
	return "blacklist:" + jti
}

func sessionVersionKey(userID uint) string {
	return "session_version:" + strconv.FormatUint(uint64(userID), 10)
}

// tokenFromRequest reads a bearer header first, then the session cookie.
func tokenFromRequest(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", models.NewUnauthorizedError("Invalid authorization header format")
		}
		return parts[1], nil
	}
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie, nil
	}
	return "", models.NewUnauthorizedError("Authorization required")
}

// Required enforces a valid session and stores the user id in locals and in
// the request context.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		claims, err := a.Parse(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, claims.UserID))

		return c.Next()
	}
}

// SecretMatches compares a presented secret with the configured one in
// constant time. An empty configured secret never matches.
func SecretMatches(configured, presented string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// CronSecretRequired guards scheduled-job endpoints with a static bearer
// secret. A missing server secret is a configuration error, not an auth one.
func CronSecretRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			Logger.ErrorContext(c.UserContext(), "CRON_SECRET is not configured")
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewConfigError("Server configuration error"))
		}

		authHeader := c.Get("Authorization")
		presented, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || !SecretMatches(secret, presented) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}
		return c.Next()
	}
}
