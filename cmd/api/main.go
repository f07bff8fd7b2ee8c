package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"care-team-access/internal/adapters/auth/identity"
	"care-team-access/internal/adapters/auth/jwtlocal"
	"care-team-access/internal/adapters/notify/mailer"
	"care-team-access/internal/platform/logger"
	"care-team-access/internal/ports/auth"
	"care-team-access/internal/ports/directory"
	"care-team-access/internal/ports/notify"
	"care-team-access/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // .env es opcional, env real pisa siempre

	appLog := logger.NewFromEnv()

	var (
		verifier auth.AuthVerifier
		users    directory.UserLookup
	)

	// Verificación de tokens: servicio de identidad si está configurado,
	// si no HMAC local, si no nil (modo dev con X-Debug-User-ID).
	if base := os.Getenv("IDENTITY_BASE_URL"); base != "" {
		client, err := identity.NewClient(identity.Config{
			BaseURL: base,
			APIKey:  os.Getenv("IDENTITY_API_KEY"),
		})
		if err != nil {
			log.Fatalf("identity client: %v", err)
		}
		verifier = identity.NewVerifier(client)
		users = client
		appLog.Info("auth: identity service", map[string]any{"base_url": base})
	} else if secret := os.Getenv("JWT_SECRET"); secret != "" {
		v, err := jwtlocal.NewVerifier(secret)
		if err != nil {
			log.Fatalf("jwt verifier: %v", err)
		}
		verifier = v
		appLog.Info("auth: local jwt", nil)
	} else {
		appLog.Warn("auth: dev mode, requests trust X-Debug-User-ID", nil)
	}

	var inviteMailer notify.InviteMailer
	if base := os.Getenv("MAILER_BASE_URL"); base != "" {
		m, err := mailer.NewClient(mailer.Config{
			BaseURL: base,
			APIKey:  os.Getenv("MAILER_API_KEY"),
		})
		if err != nil {
			log.Fatalf("mailer client: %v", err)
		}
		inviteMailer = m
	}

	var inviteTTL time.Duration
	if v := os.Getenv("INVITE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("INVITE_TTL inválido: %v", err)
		}
		inviteTTL = d
	}

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Users:        users,
		Mailer:       inviteMailer,
		InviteTTL:    inviteTTL,
		Logger:       appLog,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
