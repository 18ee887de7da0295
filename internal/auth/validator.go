package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fathomgrid/ingest-relay/internal/infrastructure/config"
)

// Identity is an authenticated principal.
//
// Groups are passed through to downstream consumers unmodified; the
// relay applies no authorization policy beyond carrying them.
type Identity struct {
	Username string
	Groups   []string
}

// TokenValidator verifies a bearer token and resolves its principal.
//
// Implementations may call out to a remote identity provider, so the
// contract takes a context for cancellation.
type TokenValidator interface {
	// Validate checks the token and returns the authenticated identity.
	//
	// Returns:
	//   - *Identity: The authenticated principal
	//   - error: ErrTokenInvalid on rejection, ErrTokenUnparseable when
	//     the token verifies but names no principal
	Validate(ctx context.Context, token string) (*Identity, error)
}

// Claims extends JWT standard claims with the relay's identity fields.
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// JWTValidator verifies HMAC-signed bearer tokens locally.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator creates a validator from auth configuration.
func NewJWTValidator(cfg config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		secret: []byte(cfg.TokenSecret),
	}
}

// Validate checks the token signature and expiry, then resolves the
// principal from the username claim (falling back to the subject).
//
// Parameters:
//   - ctx: Context for cancellation
//   - token: The bearer token string from the inbound message
//
// Returns:
//   - *Identity: The authenticated principal
//   - error: Wrapped ErrTokenInvalid or ErrTokenUnparseable
func (v *JWTValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ctx.Err())
	default:
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	if username == "" {
		return nil, ErrTokenUnparseable
	}

	return &Identity{
		Username: username,
		Groups:   claims.Groups,
	}, nil
}

// GenerateToken creates a signed bearer token for a device identity.
// Used by provisioning tooling and tests.
func GenerateToken(username string, groups []string, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
		Groups:   groups,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
