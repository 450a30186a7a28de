package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
	"github.com/BuzzLyutic/project-tracker-api/internal/model"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
)

const (
	msgInvalidCredentials = "Invalid credentials."
	msgBadToken           = "Failed to authenticate token."
)

type claims struct {
	UserID int64      `json:"id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users  repo.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users repo.UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Login проверяет пару email/пароль и выдает токен.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", model.User{}, apperr.New(apperr.InvalidInput, "Email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrorNotFound) {
		return "", model.User{}, apperr.New(apperr.Unauthorized, msgInvalidCredentials)
	}
	if err != nil {
		return "", model.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", model.User{}, apperr.New(apperr.Unauthorized, msgInvalidCredentials)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", model.User{}, err
	}
	return token, user, nil
}

func (s *AuthService) IssueToken(user model.User) (string, error) {
	now := s.now()
	c := claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate разбирает и проверяет токен, возвращая личность запрашивающего.
func (s *AuthService) Authenticate(token string) (model.Requester, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return model.Requester{}, apperr.New(apperr.Unauthorized, msgBadToken)
	}

	switch c.Role {
	case model.RoleAdmin, model.RoleMember:
	default:
		return model.Requester{}, apperr.New(apperr.Unauthorized, msgBadToken)
	}
	return model.Requester{ID: c.UserID, Role: c.Role}, nil
}

// HashPassword returns a bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
