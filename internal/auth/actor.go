package auth

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Actor is the authenticated caller. Every engine operation takes it as an
// explicit argument; nothing below the HTTP layer reads request globals.
type Actor struct {
	UserID  uuid.UUID
	IsStaff bool
}

var ErrUnauthenticated = errors.New("unauthenticated")

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// ParseBearer verifies an "Authorization: Bearer <jwt>" header value signed
// with HS256 and extracts the actor from the sub and is_staff claims.
func ParseBearer(header, secret string) (Actor, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return Actor{}, errors.Wrap(ErrUnauthenticated, "missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Actor{}, errors.Wrap(ErrUnauthenticated, "invalid token")
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, errors.Wrap(ErrUnauthenticated, "invalid claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Actor{}, errors.Wrap(ErrUnauthenticated, "missing subject")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Actor{}, errors.Wrap(ErrUnauthenticated, "subject is not a user id")
	}

	isStaff, _ := claims["is_staff"].(bool)
	return Actor{UserID: userID, IsStaff: isStaff}, nil
}
