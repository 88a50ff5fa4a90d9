package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const anonymous = "Anonymous"

var (
	ErrMissingToken = errors.New("authorization header is not provided")
	ErrInvalidToken = errors.New("invalid token")
)

type ctxKey struct{}

// Identity is the acting user of a request. The zero value is an anonymous caller.
type Identity struct {
	UserID   int64
	Username string
	IsStaff  bool
}

func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

func (i Identity) DisplayName() string {
	if !i.Authenticated() {
		return anonymous
	}
	if i.Username == "" {
		return strconv.FormatInt(i.UserID, 10)
	}
	return i.Username
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// ParseToken validates an HS256 token and reads the identity from its claims:
// "sub" holds the user id, "name" the display name and "staff" the privilege flag.
func ParseToken(tokenString, secret string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	userIDStr, ok := claims["sub"].(string)
	if !ok {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, fmt.Errorf("%w: invalid user id format", ErrInvalidToken)
	}

	id := Identity{UserID: userID}
	id.Username, _ = claims["name"].(string)
	id.IsStaff, _ = claims["staff"].(bool)
	return id, nil
}

func FromRequest(r *http.Request, secret string) (Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Identity{}, ErrMissingToken
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Identity{}, fmt.Errorf("%w: invalid authorization header format", ErrInvalidToken)
	}
	return ParseToken(strings.TrimPrefix(authHeader, "Bearer "), secret)
}

// Middleware attaches the caller identity to the request context. Requests without
// a valid bearer token continue as anonymous; rejecting them is up to the handlers.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := FromRequest(r, secret)
			if err != nil {
				id = Identity{}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
