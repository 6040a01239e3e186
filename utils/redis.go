package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/models"
)

// ErrSessionNotFound is returned for unknown or expired tokens.
var ErrSessionNotFound = errors.New("session not found")

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Configure connection pooling
	opt.PoolSize = 100                    // Maximum number of connections in the pool
	opt.MinIdleConns = 2                  // Minimum number of idle connections
	opt.DialTimeout = 5 * time.Second     // Timeout for new connections
	opt.ConnMaxIdleTime = 5 * time.Minute // Close idle connections after this duration

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func sessionKey(token string) string {
	return "session:" + token
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

// NewSession builds a session for u valid for ttl.
func NewSession(u models.User, ttl time.Duration, userAgent, ip string) (models.Session, error) {
	token, err := GenerateToken(32)
	if err != nil {
		return models.Session{}, err
	}
	now := time.Now()
	return models.Session{
		Token:        token,
		UserID:       u.ID.String(),
		Email:        u.Email,
		CreatedAt:    now.Format(time.RFC3339),
		ExpiresAt:    now.Add(ttl).Format(time.RFC3339),
		LastActivity: now.Format(time.RFC3339),
		UserAgent:    userAgent,
		IPAddress:    ip,
	}, nil
}

// StoreSession saves a session in Redis
func StoreSession(ctx context.Context, client *redis.Client, session models.Session, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sessionMap := map[string]any{
		"user_id":       session.UserID,
		"email":         session.Email,
		"created_at":    session.CreatedAt,
		"expires_at":    session.ExpiresAt,
		"last_activity": session.LastActivity,
		"user_agent":    session.UserAgent,
		"ip_address":    session.IPAddress,
	}

	key := sessionKey(session.Token)
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, sessionMap)
		pipe.Expire(ctx, key, ttl)
		// Add to the user's session index
		pipe.SAdd(ctx, userSessionsKey(session.UserID), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// GetSession retrieves a live session from Redis
func GetSession(ctx context.Context, client *redis.Client, token string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data, err := client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	session := &models.Session{
		Token:        token,
		UserID:       data["user_id"],
		Email:        data["email"],
		CreatedAt:    data["created_at"],
		ExpiresAt:    data["expires_at"],
		LastActivity: data["last_activity"],
		UserAgent:    data["user_agent"],
		IPAddress:    data["ip_address"],
	}
	expiresAt, err := session.Expiry()
	if err != nil {
		log.Println("Ignoring session with bad expiry:", err)
		return nil, ErrSessionNotFound
	}
	if !time.Now().Before(expiresAt) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession removes a single session and its reference in the user index
func DeleteSession(ctx context.Context, client *redis.Client, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Get the user ID from the session
	userID, err := client.HGet(ctx, sessionKey(token), "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, userSessionsKey(userID), sessionKey(token))
		pipe.Del(ctx, sessionKey(token))
		return nil
	})
	return err
}

// UpdateLastActivity updates the last activity timestamp of a session
func UpdateLastActivity(ctx context.Context, client *redis.Client, token string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.HSet(ctx, sessionKey(token), "last_activity", time.Now().Format(time.RFC3339)).Err(); err != nil {
		log.Println("Error updating last activity in Redis:", err)
	}
}

// DeleteAllUserSessions removes all sessions associated with a specific user
func DeleteAllUserSessions(ctx context.Context, client *redis.Client, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Get all session keys for this user from the index
	sessionKeys, err := client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}

	if len(sessionKeys) > 0 {
		if err := client.Del(ctx, sessionKeys...).Err(); err != nil {
			return err
		}
	}

	// Clean up the index itself
	return client.Del(ctx, userSessionsKey(userID)).Err()
}

// CountUserSessions returns how many indexed sessions for userID are still live.
func CountUserSessions(ctx context.Context, client *redis.Client, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	keys, err := client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return client.Exists(ctx, keys...).Result()
}
