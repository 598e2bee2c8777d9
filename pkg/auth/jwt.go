package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harborcrm/backend/pkg/constants"
	"github.com/harborcrm/backend/pkg/utils"
)

// UserSession is the authenticated identity carried in the JWT. TenantID is
// resolved from here on every request, never from client input.
type UserSession struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IsAdmin checks if the user administers their tenant
func (u UserSession) IsAdmin() bool {
	return constants.IsAdminRole(u.Role)
}

// Claims represents JWT claims
type Claims struct {
	User UserSession `json:"user"`
	jwt.RegisteredClaims
}

var jwtSecret []byte

// Configure sets the HMAC signing secret. The server calls this right after
// config load, so a secret supplied via .env is honored.
func Configure(secret string) {
	jwtSecret = []byte(secret)
}

// signingSecret resolves the secret lazily. Reading the environment at first
// use instead of package init keeps it from racing ahead of godotenv.
func signingSecret() []byte {
	if len(jwtSecret) == 0 {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			secret = "default-secret-change-in-production"
		}
		jwtSecret = []byte(secret)
	}
	return jwtSecret
}

// GenerateToken creates a signed JWT for a user session. The jti doubles as
// the server-side session ID.
func GenerateToken(session UserSession, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		User: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        utils.NewID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingSecret())
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken validates and parses a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return signingSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
