// Package auth issues and validates the JWT session tokens that carry the
// user id every catalog operation is scoped by. Credential management
// beyond a username lookup is out of scope; unknown usernames are created
// on first login.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrUsernameRequired = errors.New("username is required")
)

// Service handles authentication operations.
type Service struct {
	db        *sql.DB
	jwtSecret []byte
}

// Claims represents JWT claims. The subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewService creates a new auth service.
func NewService(db *sql.DB, jwtSecret string) (*Service, error) {
	secret := []byte(jwtSecret)

	// Generate random secret if not provided
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
	}

	return &Service{
		db:        db,
		jwtSecret: secret,
	}, nil
}

// Login resolves a username to a user id, creating the principal on first
// use, and returns a signed session token.
func (s *Service) Login(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", ErrUsernameRequired
	}

	userID, err := s.ensureUser(ctx, username)
	if err != nil {
		return "", err
	}
	return s.GenerateToken(userID, username)
}

// GenerateToken creates a new JWT token for one user.
func (s *Service) GenerateToken(userID int64, username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "reelvault",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the user id it carries.
func (s *Service) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func (s *Service) ensureUser(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username) VALUES (?)
		ON CONFLICT(username) DO UPDATE SET username = excluded.username
		RETURNING id`, username).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, nil
}
