package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"taskboard/models"
	"taskboard/utils"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

var (
	userOne = models.User{ID: uuid.MustParse("6f1c3c1e-8f0e-4d53-9a57-0c1a5d0e4b11"), Email: "one@example.com"}
	userTwo = models.User{ID: uuid.MustParse("0b7d5a55-5e0f-4f3a-8b1e-2d6c9e1f7a22"), Email: "two@example.com"}
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	client, mr := newRedis(t)

	session, err := utils.NewSession(userOne, time.Hour, "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if session.Token == "" {
		t.Fatal("NewSession() returned an empty token")
	}
	if err := utils.StoreSession(ctx, client, session, time.Hour); err != nil {
		t.Fatalf("StoreSession() error = %v", err)
	}
	if ttl := mr.TTL("session:" + session.Token); ttl != time.Hour {
		t.Errorf("session TTL = %v, want 1h", ttl)
	}

	got, err := utils.GetSession(ctx, client, session.Token)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != userOne.ID.String() || got.Email != userOne.Email || got.UserAgent != "test-agent" || got.IPAddress != "127.0.0.1" {
		t.Errorf("GetSession() = %+v", got)
	}

	count, err := utils.CountUserSessions(ctx, client, userOne.ID.String())
	if err != nil || count != 1 {
		t.Errorf("CountUserSessions() = %d, %v; want 1", count, err)
	}

	if err := utils.DeleteSession(ctx, client, session.Token); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := utils.GetSession(ctx, client, session.Token); !errors.Is(err, utils.ErrSessionNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrSessionNotFound", err)
	}
	if err := utils.DeleteSession(ctx, client, session.Token); err != nil {
		t.Errorf("deleting an unknown session should be a no-op, got %v", err)
	}
}

func TestGetSessionRejectsExpired(t *testing.T) {
	ctx := context.Background()
	client, _ := newRedis(t)

	session, err := utils.NewSession(userOne, -time.Minute, "", "")
	if err != nil {
		t.Fatal(err)
	}
	// Stored with a long TTL so only the recorded expiry can reject it.
	if err := utils.StoreSession(ctx, client, session, time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := utils.GetSession(ctx, client, session.Token); !errors.Is(err, utils.ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteAllUserSessions(t *testing.T) {
	ctx := context.Background()
	client, _ := newRedis(t)

	var tokens []string
	for i := 0; i < 3; i++ {
		s, err := utils.NewSession(userTwo, time.Hour, "", "")
		if err != nil {
			t.Fatal(err)
		}
		if err := utils.StoreSession(ctx, client, s, time.Hour); err != nil {
			t.Fatal(err)
		}
		tokens = append(tokens, s.Token)
	}

	if err := utils.DeleteAllUserSessions(ctx, client, userTwo.ID.String()); err != nil {
		t.Fatalf("DeleteAllUserSessions() error = %v", err)
	}
	for _, tok := range tokens {
		if _, err := utils.GetSession(ctx, client, tok); !errors.Is(err, utils.ErrSessionNotFound) {
			t.Errorf("session %s survived DeleteAllUserSessions", tok)
		}
	}
	if count, _ := utils.CountUserSessions(ctx, client, userTwo.ID.String()); count != 0 {
		t.Errorf("CountUserSessions() = %d, want 0", count)
	}
}

func TestGetSessionRejectsMalformedExpiry(t *testing.T) {
	ctx := context.Background()
	client, _ := newRedis(t)

	session, err := utils.NewSession(userOne, time.Hour, "", "")
	if err != nil {
		t.Fatal(err)
	}
	session.ExpiresAt = "not-a-time"
	if err := utils.StoreSession(ctx, client, session, time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := utils.GetSession(ctx, client, session.Token); !errors.Is(err, utils.ErrSessionNotFound) {
		t.Errorf("GetSession() error = %v, want ErrSessionNotFound", err)
	}
}
