// Command timeline-server relays the timeline frontend's API calls to
// the remote work-item tracking service.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nhle/activity-timeline/internal/credential"
	"github.com/nhle/activity-timeline/internal/model"
	"github.com/nhle/activity-timeline/internal/relay"
	"github.com/nhle/activity-timeline/internal/workitem"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	logger := log.New(os.Stderr, "timeline-server ", log.LstdFlags)

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}
	if cfg.Remote.BaseURL == "" {
		logger.Fatalf("remote.base_url is not configured in %s", *configPath)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	token, err := loadToken()
	if err != nil {
		logger.Fatalf("loading access token: %v", err)
	}

	client := workitem.NewClient(cfg.Remote.BaseURL, token, nil)
	gateway := workitem.NewGateway(client, cfg.Remote.Project, nil)

	lists := model.Lists{
		Tags:          cfg.Lists.Tags,
		Areas:         cfg.Lists.Areas,
		ActivityTypes: cfg.Lists.ActivityTypes,
	}
	handler := relay.NewHandler(gateway, lists, logger, cfg.Server.AssetsDir)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s, relaying to %s", cfg.Server.Addr, cfg.Remote.BaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	case <-runCtx.Done():
		logger.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}
}

// loadToken resolves the access token from the environment or, when
// unset, the system keyring.
func loadToken() (string, error) {
	if token := os.Getenv("TIMELINE_TOKEN"); token != "" {
		return token, nil
	}
	return credential.Token()
}
