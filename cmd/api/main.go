package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/authflow"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/config"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/db"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/httpapi"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/identity"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/mailer"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/profile"
	"github.com/gabrieltorresctrlplay/Nerfas-Alfa/session"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	// Missing required configuration keeps the process up: every route
	// answers with the config-error screen so the operator sees what to
	// fix.
	if missing := cfg.Missing(); len(missing) > 0 {
		log.Warn("starting unconfigured", zap.Strings("missing", missing))
		serve(log, cfg.Port, httpapi.ConfigErrorRouter(log, missing))
		return
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("bootstrap database pool", zap.Error(err))
	}
	defer pool.Close()

	var tokens identity.TokenStore
	if cfg.RedisAddr != "" {
		tokens = identity.NewRedisTokenStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}))
	} else {
		log.Warn("REDIS_ADDR not set, reset tokens kept in memory")
		tokens = identity.NewMemoryTokenStore()
	}

	var mail identity.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		log.Warn("SMTP_HOST not set, reset mail goes to the log")
		mail = mailer.NewLogMailer(log)
	}

	identities := identity.NewService(
		identity.NewRepository(pool),
		identity.NewGoogleVerifier(cfg.GoogleClientID),
		tokens,
		mail,
		cfg.PublicBaseURL,
	)
	profiles := profile.NewStore(pool)
	flows := authflow.NewService(identities, profiles)

	sessions := session.NewManager(cfg.SessionSecret, strings.HasPrefix(cfg.PublicBaseURL, "https://"))
	gate := profile.NewGate(profiles, log)
	sessions.Subscribe(func(ev session.Event) {
		switch ev.Type {
		case session.SignedIn:
			gate.HandleSignIn(ev.UID)
		case session.SignedOut:
			gate.HandleSignOut(ev.UID)
		}
	})

	server := httpapi.NewServer(log, flows, identities, sessions, gate, profiles)
	serve(log, cfg.Port, server.Router())
}

func serve(log *zap.Logger, port string, handler http.Handler) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
