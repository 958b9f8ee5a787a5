package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskManager/internal/auth"
	"taskManager/internal/config"
	"taskManager/internal/db"
	grpcserver "taskManager/internal/grpc"
	"taskManager/internal/httpapi"
	"taskManager/internal/service"
	"taskManager/repository"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the latest migration and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadForEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Configuration loaded: %v", cfg)
	if cfg.Auth.InsecureSecret {
		log.Printf("WARNING: JWT_SECRET is not set; using the built-in development secret")
	}

	// Open DB
	d, err := db.OpenWith(db.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	if *migrateDown {
		if err := db.RollbackLast(d, cfg.Database.Driver); err != nil {
			log.Fatalf("rollback: %v", err)
		}
		log.Printf("rolled back latest migration")
		return
	}

	users := repository.NewUserRepository(d)
	tasks := repository.NewTaskRepository(d)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.PasswordMinLength)

	h := &httpapi.Handlers{
		Auth:     service.NewAuthService(users, hasher, tokens),
		Tasks:    service.NewTaskService(tasks),
		Profiles: service.NewProfileService(users),
		DB:       d,
		Env:      cfg.Env,
	}

	// Start HTTP
	stopHTTP, httpAddr, err := httpapi.StartHTTP(cfg.HTTP.Address, httpapi.NewRouter(h, tokens))
	if err != nil {
		log.Fatalf("start http: %v", err)
	}
	log.Printf("HTTP server listening on %s", httpAddr)

	// Start gRPC health endpoint
	var stopGRPC func(context.Context) error
	if cfg.GRPC.Address != "" {
		var grpcAddr net.Addr
		stopGRPC, grpcAddr, err = grpcserver.StartGRPC(cfg, d)
		if err != nil {
			log.Fatalf("start grpc: %v", err)
		}
		log.Printf("gRPC health server listening on %s", grpcAddr)
	}

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	log.Printf("received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stopHTTP(ctx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if stopGRPC != nil {
		if err := stopGRPC(ctx); err != nil {
			log.Printf("grpc shutdown error: %v", err)
		}
	}
}
