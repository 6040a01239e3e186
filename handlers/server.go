package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/models"
	"taskboard/store"
	"taskboard/ui"
	"taskboard/utils"
)

// Server carries the dependencies every handler needs.
type Server struct {
	redis      *redis.Client
	users      utils.Authenticator
	registrar  utils.Registrar
	stores     *store.Registry
	sessionTTL time.Duration
	seed       bool
	secure     bool
	pages      map[string]*template.Template
}

type Config struct {
	Redis      *redis.Client
	Users      utils.Authenticator
	Registrar  utils.Registrar
	Stores     *store.Registry
	SessionTTL time.Duration
	// SeedDemo fills a user's untouched store with sample tasks on first view.
	SeedDemo bool
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Redis == nil || cfg.Users == nil || cfg.Stores == nil {
		return nil, errors.New("handlers: redis, users and stores are required")
	}
	pages, err := ui.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Server{
		redis:      cfg.Redis,
		users:      cfg.Users,
		registrar:  cfg.Registrar,
		stores:     cfg.Stores,
		sessionTTL: cfg.SessionTTL,
		seed:       cfg.SeedDemo,
		secure:     cfg.SecureCookies,
		pages:      pages,
	}, nil
}

type sessionKey struct{}

func withSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// sessionFrom returns the session attached by the auth middleware.
func sessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey{}).(*models.Session)
	return s
}
