package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRevoked     = errors.New("session has been revoked")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	AuthorID int64  `json:"author_id"`
	Email    string `json:"email"`
}

// AuthService handles author authentication, JWT, and session tracking.
type AuthService struct {
	cfg     *config.Config
	rdb     *redis.Client
	authors *repository.AuthorRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, authors *repository.AuthorRepository) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, authors: authors}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and returns a signed JWT plus the author.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (string, *model.Author, error) {
	author, err := s.authors.GetByEmail(ctx, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup author: %w", err)
	}

	if err := s.CheckPassword(author.PasswordHash, req.Password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(ctx, author)
	if err != nil {
		return "", nil, err
	}
	return token, author, nil
}

// Logout revokes the author's active session.
func (s *AuthService) Logout(ctx context.Context, authorID int64) error {
	return s.rdb.Del(ctx, config.CacheKey.AuthorSessionKey(authorID)).Err()
}

func (s *AuthService) generateToken(ctx context.Context, author *model.Author) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(author.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		AuthorID: author.ID,
		Email:    author.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	// Track the session so a logout invalidates outstanding tokens.
	sessionKey := config.CacheKey.AuthorSessionKey(author.ID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// ValidateToken parses a JWT and checks it against the tracked session.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	jti, err := s.rdb.Get(ctx, config.CacheKey.AuthorSessionKey(claims.AuthorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("check session: %w", err)
	}
	if jti != claims.ID {
		return nil, ErrSessionRevoked
	}

	return claims, nil
}
