package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"taskboard/handlers"
	"taskboard/models"
	"taskboard/store"
	"taskboard/utils"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	users, err := utils.NewStaticUser("admin@example.com", "SecureP@ss123")
	if err != nil {
		t.Fatal(err)
	}
	s, err := handlers.NewServer(handlers.Config{
		Redis:      rc,
		Users:      users,
		Stores:     store.NewRegistry(nil),
		SessionTTL: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

// run executes taskctl against srv with a token file private to the test.
func run(t *testing.T, srv *httptest.Server, tokenFile string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api-url", srv.URL, "--token-file", tokenFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTaskctlSession(t *testing.T) {
	srv := newTestServer(t)
	tokenFile := filepath.Join(t.TempDir(), "credentials.json")

	if _, err := run(t, srv, tokenFile, "list"); err == nil {
		t.Fatal("list without login should fail")
	}

	steps := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "login",
			args: []string{"login", "--email", "admin@example.com", "--password", "SecureP@ss123"},
			want: []string{"Signed in until"},
		},
		{
			name: "empty list",
			args: []string{"list"},
			want: []string{"No tasks yet"},
		},
		{
			name: "add high priority",
			args: []string{"add", "Write release notes", "-p", "high", "-d", "for v2"},
			want: []string{"Task added successfully!", "#1", "Write release notes", "for v2", "high"},
		},
		{
			name: "add default priority",
			args: []string{"add", "Water plants"},
			want: []string{"#2", "medium"},
		},
		{
			name: "toggle",
			args: []string{"toggle", "1"},
			want: []string{"Task marked as complete!"},
		},
		{
			name:    "list pending",
			args:    []string{"list", "--pending"},
			want:    []string{"Water plants", "1 shown"},
			notWant: []string{"Write release notes", "of 1 done"},
		},
		{
			name: "edit title",
			args: []string{"edit", "#2", "--title", "Water the plants"},
			want: []string{"Task updated successfully!", "Water the plants", "medium"},
		},
		{
			name: "remove",
			args: []string{"rm", "1"},
			want: []string{"Task deleted successfully!"},
		},
		{
			name:    "list all",
			args:    []string{"list"},
			want:    []string{"Water the plants", "0 of 1 done"},
			notWant: []string{"Write release notes"},
		},
		{
			name: "logout",
			args: []string{"logout"},
			want: []string{"Signed out"},
		},
	}

	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, srv, tokenFile, tt.args...)
			if err != nil {
				t.Fatalf("taskctl %v error = %v\n%s", tt.args, err, out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}

	out, err := run(t, srv, tokenFile, "list")
	if err == nil || !strings.Contains(out, "Session expired") {
		t.Errorf("list after logout = %v\n%s", err, out)
	}
}

func TestTaskctlRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)
	tokenFile := filepath.Join(t.TempDir(), "credentials.json")

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown priority", args: []string{"add", "x", "-p", "urgent"}},
		{name: "blank title", args: []string{"add", "   "}},
		{name: "bad id", args: []string{"toggle", "abc"}},
		{name: "zero id", args: []string{"rm", "0"}},
		{name: "done and pending", args: []string{"list", "--done", "--pending"}},
		{name: "login without password", args: []string{"login", "--email", "a@b.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, srv, tokenFile, tt.args...); err == nil {
				t.Errorf("taskctl %v succeeded, want error", tt.args)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "3", want: 3},
		{in: "#12", want: 12},
		{in: " 7 ", want: 7},
		{in: "-1", wantErr: true},
		{in: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "a", Completed: true},
		{ID: 2, Title: "b"},
	}

	tests := []struct {
		name     string
		filtered bool
		want     string
	}{
		{name: "Whole board", want: "1 of 2 done"},
		{name: "Filtered page", filtered: true, want: "2 shown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summary(tasks, tt.filtered); !strings.Contains(got, tt.want) {
				t.Errorf("summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
