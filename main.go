package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frontdesk-order-services/internal/catalog"
	"frontdesk-order-services/internal/config"
	"frontdesk-order-services/internal/db"
	"frontdesk-order-services/internal/effects"
	"frontdesk-order-services/internal/engine"
	httpapi "frontdesk-order-services/internal/http"
	"frontdesk-order-services/internal/http/handlers"
	"frontdesk-order-services/internal/logger"
	"frontdesk-order-services/internal/middleware"
	"frontdesk-order-services/internal/queue"
	"frontdesk-order-services/internal/storage"
	"frontdesk-order-services/internal/store"
	"frontdesk-order-services/internal/store/memory"
	"frontdesk-order-services/internal/store/postgres"
	"frontdesk-order-services/internal/utils"
	"frontdesk-order-services/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	var (
		st      store.Store
		menu    catalog.MenuLookup
		charges catalog.ChargeLookup
	)
	switch cfg.StoreDriver {
	case "memory":
		mem := memory.New()
		static := catalog.NewStatic()
		seedDemo(mem, static)
		st, menu, charges = mem, static, static
		log.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns))
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()

		pg := postgres.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
		lookups := catalog.NewPostgres(pool)
		st, menu, charges = pg, lookups, lookups
	}

	hub := ws.NewHub(logger.Named(log, "ws"), cfg.JWTSecret, cfg.WSHeartbeatInterval)
	sinks := effects.Sinks{Events: hub, Prints: hub}

	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err == nil {
			err = queue.EnsureTopology(qc, queue.Topology{
				EventsExchange: cfg.EventsExchange,
				PrintQueue:     cfg.PrintQueue,
			})
			if err != nil {
				_ = qc.Close()
			}
		}
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq setup failed", zap.Error(err))
			}
			log.Warn("rabbitmq setup failed; pushing events to local websocket rooms only", zap.Error(err))
		} else {
			defer qc.Close()
			publisher := queue.NewPublisher(qc, cfg.EventsExchange)
			sinks.Events = publisher
			sinks.Prints = publisher

			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("realtime relay enabled", zap.String("exchange", cfg.EventsExchange))
				go func() {
					if err := queue.RunRelay(ctx, qc, cfg.EventsExchange, hub, logger.Named(log, "relay")); err != nil {
						log.Error("realtime relay stopped", zap.Error(err))
					}
				}()
			} else {
				// Without a relay this instance's rooms only see what it emits itself.
				sinks.Events = effects.EventFanout{publisher, hub}
				log.Warn("realtime relay disabled; websocket rooms get local events only", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("rabbitmq disabled (RABBITMQ_URL is empty)")
	}

	var archiver *storage.InvoiceArchiver
	if cfg.ArchiveEnabled() {
		objects, err := storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			log.Warn("object store unavailable; invoice archive disabled", zap.Error(err))
		} else {
			archiver = storage.NewInvoiceArchiver(objects, storage.ArchiveOptions{
				Prefix:     cfg.InvoiceArchivePrefix,
				OutletName: cfg.OutletName,
				Currency:   cfg.Currency,
				Location:   utils.LoadLocation(cfg.Timezone),
			}, logger.Named(log, "archive"))
			sinks.Archiver = archiver
		}
	}

	dispatcher := effects.NewDispatcher(sinks, cfg.EffectTimeout, logger.Named(log, "effects"))
	eng := engine.New(st, menu, charges, dispatcher, logger.Named(log, "engine"), engine.Options{
		CatalogTimeout: cfg.CatalogTimeout,
	})

	apiServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Handler:  newHandler(eng, archiver, logger.Named(log, "http"), cfg),
			Realtime: hub,
			Latency:  middleware.NewLatencyTracker(200),
			Logger:   log,
			Config:   cfg,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("frontdesk api ready", zap.String("base", "/api"))
		log.Info("frontdesk ws ready", zap.String("base", "/ws"))
		log.Info("frontdesk service listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	stopRelay()
	dispatcher.Wait()
}

func newHandler(eng *engine.Engine, archiver *storage.InvoiceArchiver, log *zap.Logger, cfg config.Config) *handlers.Handler {
	h := &handlers.Handler{Engine: eng, Logger: log, Config: cfg}
	if archiver != nil {
		h.Invoices = archiver
	}
	return h
}
