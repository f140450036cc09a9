package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/technosupport/ts-media-hub/internal/api"
	"github.com/technosupport/ts-media-hub/internal/cameras"
	"github.com/technosupport/ts-media-hub/internal/config"
	"github.com/technosupport/ts-media-hub/internal/entities"
	"github.com/technosupport/ts-media-hub/internal/middleware"
	"github.com/technosupport/ts-media-hub/internal/notify"
	"github.com/technosupport/ts-media-hub/internal/querycache"

	_ "github.com/technosupport/ts-media-hub/internal/engines/frigate"
	_ "github.com/technosupport/ts-media-hub/internal/engines/generic"
)

const serviceName = "TS-Media-Hub"

func main() {
	cfgPath := os.Getenv("MEDIAHUB_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/default.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Config load error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Redis timeline cache
	var cache cameras.TimelineCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis ping failed: %v. Timeline caching disabled.", err)
		} else {
			cache = querycache.New(rdb)
		}
	}

	// Optional NATS notifications
	natsSubject := cfg.NATS.Subject
	if natsSubject == "" {
		natsSubject = notify.DefaultSubject
	}
	var nc *nats.Conn
	var notifier cameras.MediaNotifier
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL, nats.Name(serviceName))
		if err != nil {
			log.Printf("Warning: NATS connect failed: %v. Media notifications disabled.", err)
		} else {
			defer nc.Close()
			notifier = notify.NewPublisher(nc, natsSubject, cfg.NATS.PublishRetryMax)
		}
	}

	// Entity resolver for trigger auto-detection
	var resolver entities.Resolver
	if cfg.Entities.URL != "" {
		resolver = entities.NewCachedResolver(entities.NewHTTPResolver(cfg.Entities.URL, cfg.Entities.Token))
	}

	manager := cameras.NewManager(cameras.RegistryFactory{}, cache, notifier)
	if err := manager.InitializeCameras(ctx, resolver, cfg.Cameras); err != nil {
		log.Fatalf("Camera initialization failed: %v", err)
	}

	// Reload cameras when the config file changes. A failed reload keeps
	// the previous registry serving.
	config.StartWatcher(ctx, cfgPath, func() {
		newCfg, err := config.Load(cfgPath)
		if err != nil {
			log.Printf("[ERROR] Config reload failed: %v", err)
			return
		}
		if err := manager.InitializeCameras(ctx, resolver, newCfg.Cameras); err != nil {
			log.Printf("[ERROR] Camera re-initialization failed: %v", err)
		}
	})

	// Routing
	jwtAuth := middleware.NewJWTAuth(cfg.Auth.SigningKey)
	handler := api.NewHandler(manager)
	wsHandler := api.NewMediaWatchHandler(nc, natsSubject, func(token string) error {
		_, err := jwtAuth.ValidateToken(token)
		return err
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !manager.IsInitialized() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// WS auth uses the query-param token, outside the bearer middleware.
	r.HandleFunc("/api/v1/media/watch", wsHandler.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtAuth.Middleware)
		handler.Register(r)
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] %s listening on %s", serviceName, cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Printf("[INFO] Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] Shutdown error: %v", err)
	}
}
