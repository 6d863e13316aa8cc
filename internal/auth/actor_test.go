package auth

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestParseBearer(t *testing.T) {
	userID := uuid.New()

	t.Run("staff actor", func(t *testing.T) {
		raw := signToken(t, jwt.MapClaims{"sub": userID.String(), "is_staff": true}, testSecret)
		actor, err := ParseBearer("Bearer "+raw, testSecret)
		if err != nil {
			t.Fatal(err)
		}
		if actor.UserID != userID || !actor.IsStaff {
			t.Errorf("unexpected actor %+v", actor)
		}
	})

	t.Run("non-staff by default", func(t *testing.T) {
		raw := signToken(t, jwt.MapClaims{"sub": userID.String()}, testSecret)
		actor, err := ParseBearer("Bearer "+raw, testSecret)
		if err != nil {
			t.Fatal(err)
		}
		if actor.IsStaff {
			t.Error("expected non-staff actor")
		}
	})

	t.Run("missing header", func(t *testing.T) {
		if _, err := ParseBearer("", testSecret); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw := signToken(t, jwt.MapClaims{"sub": userID.String()}, "other-secret")
		if _, err := ParseBearer("Bearer "+raw, testSecret); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("subject not a uuid", func(t *testing.T) {
		raw := signToken(t, jwt.MapClaims{"sub": "42"}, testSecret)
		if _, err := ParseBearer("Bearer "+raw, testSecret); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
	})
}
