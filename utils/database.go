package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/models"
	"taskboard/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS tasks (
	user_id     UUID NOT NULL,
	id          INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   BOOLEAN NOT NULL DEFAULT FALSE,
	priority    TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, id)
);
CREATE TABLE IF NOT EXISTS task_lists (
	user_id    UUID PRIMARY KEY,
	revision   BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func OpenDB(dsn string) (*pgxpool.Pool, error) {
	// Parse the connection string into a pgxpool.Config
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	config.MaxConns = 20
	config.MaxConnIdleTime = 20 * time.Second
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// TaskRepository keeps each user's task list in Postgres. The in-memory
// store stays authoritative; the repository loads it once and then mirrors
// every change. The store revision is saved with the list so that an emptied
// list is told apart from one that was never written.
type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// Load returns the stored list for userID in order, and the revision it was
// saved at. A user with nothing stored gets revision 0.
func (tr *TaskRepository) Load(ctx context.Context, userID string) ([]models.Task, uint64, error) {
	var revision int64
	err := tr.db.QueryRow(ctx, "SELECT revision FROM task_lists WHERE user_id = $1", userID).Scan(&revision)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("query revision: %w", err)
	}

	stmt := `SELECT id, title, description, completed, priority, created_at
		FROM tasks WHERE user_id = $1 ORDER BY position`
	rows, err := tr.db.Query(ctx, stmt, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[models.Task])
	if err != nil {
		return nil, 0, fmt.Errorf("scan tasks: %w", err)
	}
	return tasks, uint64(revision), nil
}

// Replace overwrites the stored list for userID with tasks, in order, and
// records revision.
func (tr *TaskRepository) Replace(ctx context.Context, userID string, tasks []models.Task, revision uint64) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}

	tx, err := tr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM tasks WHERE user_id = $1", uid); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	columns := []string{"user_id", "id", "position", "title", "description", "completed", "priority", "created_at"}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"tasks"}, columns, pgx.CopyFromSlice(len(tasks), func(i int) ([]any, error) {
		t := tasks[i]
		return []any{uid, t.ID, i, t.Title, t.Description, t.Completed, string(t.Priority), t.CreatedAt}, nil
	}))
	if err != nil {
		return fmt.Errorf("copy tasks: %w", err)
	}

	stmt := `INSERT INTO task_lists (user_id, revision) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET revision = EXCLUDED.revision, updated_at = NOW()`
	if _, err := tx.Exec(ctx, stmt, uid, int64(revision)); err != nil {
		return fmt.Errorf("save revision: %w", err)
	}
	return tx.Commit(ctx)
}

// Mirror returns a store listener that writes every change for userID.
func (tr *TaskRepository) Mirror(userID string) store.Listener {
	return func(c store.Change) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tr.Replace(ctx, userID, c.Tasks, c.Revision); err != nil {
			log.Printf("failed to persist tasks for user %s after %s: %v", userID, c.Kind, err)
		}
	}
}

// PGUsers authenticates against the users table.
type PGUsers struct {
	db *pgxpool.Pool
}

func NewPGUsers(db *pgxpool.Pool) *PGUsers {
	return &PGUsers{db: db}
}

func (pu *PGUsers) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var u models.User
	stmt := "SELECT id, email, password_hash FROM users WHERE email = $1;"
	err := pu.db.QueryRow(ctx, stmt, email).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPasswordHash(password, string(u.PasswordHash)) {
		return models.User{}, ErrInvalidCredentials
	}
	pu.touch(ctx, u.ID)
	return u, nil
}

func (pu *PGUsers) Register(ctx context.Context, email, password string) (models.User, error) {
	inUse, err := pu.EmailInUse(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if inUse {
		return models.User{}, ErrEmailInUse
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{ID: uuid.New(), Email: email, PasswordHash: []byte(hash)}
	stmt := "INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3);"
	if _, err := pu.db.Exec(ctx, stmt, u.ID, u.Email, u.PasswordHash); err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (pu *PGUsers) EmailInUse(ctx context.Context, email string) (bool, error) {
	stmt := "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)"

	var exists bool
	if err := pu.db.QueryRow(ctx, stmt, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("database error checking email: %w", err)
	}
	return exists, nil
}

func (pu *PGUsers) touch(ctx context.Context, id uuid.UUID) {
	stmt := "UPDATE users SET last_activity = NOW() WHERE id = $1"
	if _, err := pu.db.Exec(ctx, stmt, id); err != nil {
		log.Println("error updating last activity:", err)
	}
}
