package utils

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskboard/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email address is already registered")
	ErrRegistrationClosed = errors.New("registration is not available")
)

// Authenticator resolves login credentials to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, email, password string) (models.User, error)
}

// StaticUser is a single account configured at startup, used when no
// database is available.
type StaticUser struct {
	user models.User
}

func NewStaticUser(email, password string) (*StaticUser, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("admin email: %w", err)
	}
	if password == "" {
		return nil, errors.New("admin password is empty")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &StaticUser{user: models.User{
		// Stable across restarts so persisted data keeps its owner.
		ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))),
		Email:        email,
		PasswordHash: []byte(hash),
	}}, nil
}

func (su *StaticUser) Authenticate(_ context.Context, email, password string) (models.User, error) {
	if !strings.EqualFold(strings.TrimSpace(email), su.user.Email) || !CheckPasswordHash(password, string(su.user.PasswordHash)) {
		return models.User{}, ErrInvalidCredentials
	}
	return su.user, nil
}

func (su *StaticUser) Register(context.Context, string, string) (models.User, error) {
	return models.User{}, ErrRegistrationClosed
}

func GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
