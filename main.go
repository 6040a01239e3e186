package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/config"
	"taskboard/handlers"
	"taskboard/store"
	"taskboard/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Println("environment: ", cfg.Env)

	redisPool, err := utils.OpenRedisPool(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisPool.Close()

	hcfg := handlers.Config{
		Redis:         redisPool,
		SessionTTL:    cfg.SessionTTL,
		SeedDemo:      cfg.SeedDemo,
		SecureCookies: cfg.Production(),
	}

	if cfg.DatabaseURL != "" {
		dbPool, err := utils.OpenDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()
		if err := setupDatabase(dbPool, cfg, &hcfg); err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
	} else {
		admin, err := utils.NewStaticUser(cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Invalid admin credentials: %v", err)
		}
		log.Println("No DATABASE_URL set, tasks are kept in memory for", cfg.AdminEmail)
		hcfg.Users = admin
		hcfg.Stores = store.NewRegistry(func(userID string) (*store.Store, error) {
			return store.New(store.WithNotifier(store.LogNotifier(userID))), nil
		})
	}

	srv, err := handlers.NewServer(hcfg)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting server on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// setupDatabase wires Postgres-backed users and task persistence into hcfg.
func setupDatabase(db *pgxpool.Pool, cfg config.Config, hcfg *handlers.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := utils.EnsureSchema(ctx, db); err != nil {
		return err
	}

	users := utils.NewPGUsers(db)
	if cfg.AdminEmail != "" {
		inUse, err := users.EmailInUse(ctx, cfg.AdminEmail)
		if err != nil {
			return err
		}
		if !inUse {
			if _, err := users.Register(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				return err
			}
			log.Println("Created admin account", cfg.AdminEmail)
		}
	}

	repo := utils.NewTaskRepository(db)
	hcfg.Users = users
	hcfg.Registrar = users
	hcfg.Stores = store.NewRegistry(func(userID string) (*store.Store, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		tasks, revision, err := repo.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		st := store.New(
			store.WithTasks(tasks),
			store.WithRevision(revision),
			store.WithNotifier(store.LogNotifier(userID)),
		)
		st.Subscribe(repo.Mirror(userID))
		return st, nil
	})
	return nil
}
