package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/breachwatch/hibp-relay/internal/auth"
	"github.com/breachwatch/hibp-relay/internal/config"
	"github.com/breachwatch/hibp-relay/internal/enrich"
	"github.com/breachwatch/hibp-relay/internal/hibp"
	"github.com/breachwatch/hibp-relay/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := hibp.NewClient(hibp.ClientConfig{
		APIURL:    cfg.HIBP.APIURL,
		UserAgent: cfg.HIBP.UserAgent,
		Timeout:   cfg.HIBP.Timeout,
	})

	keys := auth.NewKeyProvider(cfg.Auth.SecretKey)
	enricher := enrich.New(client, cfg.EntitiesLimit, cfg.HIBP.UIURL)

	srv := web.NewServer(cfg, keys, enricher, client)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Printf("listening on %s", cfg.Web.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		if err := srv.Stop(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	}
}
