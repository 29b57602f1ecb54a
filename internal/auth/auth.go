package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const RoleSeller = "seller"

var ErrInvalidToken = errors.New("invalid token")

type Identity struct {
	UserID string
	Seller bool
}

type Authenticator interface {
	Authenticate(token string) (*Identity, error)
}

// JWTAuthenticator validates HS256 tokens carrying the user id in "id"
// and an optional "role" claim.
type JWTAuthenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTAuthenticator(secret string, ttl time.Duration) *JWTAuthenticator {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &JWTAuthenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the identity, used by seeding tools and tests.
func (a *JWTAuthenticator) Issue(id Identity) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"id":  id.UserID,
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	}
	if id.Seller {
		claims["role"] = RoleSeller
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (a *JWTAuthenticator) Authenticate(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	userID, _ := claims["id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	return &Identity{UserID: userID, Seller: role == RoleSeller}, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}
