package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoSession      = errors.New("no session token")
	ErrInvalidSession = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session token has expired")
)

// --- Session Claims ---

// SessionClaims includes standard JWT claims plus the session owner.
type SessionClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// Session is what the rest of the app learns about an authenticated caller.
type Session struct {
	UserID uuid.UUID
	Email  string
}

// SessionProvider resolves an opaque session token into a Session.
type SessionProvider interface {
	Session(ctx context.Context, token string) (*Session, error)
}

// JWTSessions is a SessionProvider backed by HS256 tokens.
type JWTSessions struct {
	secret []byte
}

func NewJWTSessions(secret string) *JWTSessions {
	return &JWTSessions{secret: []byte(secret)}
}

// NewSessionToken generates a new signed session token.
func NewSessionToken(userID uuid.UUID, email string, secret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "askchat-backend",
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		log.Printf("Error signing session token for UserID %s: %v", userID, err)
		return "", err
	}
	return signedToken, nil
}

// Session parses and validates the token.
func (p *JWTSessions) Session(ctx context.Context, tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrNoSession
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidSession
	}

	return &Session{UserID: claims.UserID, Email: claims.Email}, nil
}
