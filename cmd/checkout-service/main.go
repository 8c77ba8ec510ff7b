package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/fallback"
	httpapi "github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/kv"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/menu"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/transport"
)

func main() {
	cfg := config.Load()

	log, err := logging.New("checkout-service", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := menu.Default()
	if cfg.MenuFile != "" {
		catalog, err = menu.LoadFile(cfg.MenuFile)
		if err != nil {
			log.Fatal("load menu", zap.String("file", cfg.MenuFile), zap.Error(err))
		}
	}

	var (
		cartRepo  cart.Repository = cart.NewMemoryRepository()
		store     fallback.Store  = fallback.NewMemoryStore()
		sequences events.SequenceRepository
		probes    []httpapi.Probe
	)
	if cfg.DatabaseDSN != "" {
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, log); err != nil {
				log.Fatal("run migrations", zap.Error(err))
			}
		}

		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()

		sqlDB, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatal("open postgres", zap.Error(err))
		}
		defer sqlDB.Close()

		cartRepo = cart.NewPostgresRepository(pool)
		store = fallback.NewPostgresStore(pool)
		sequences = events.NewSequenceRepository(sqlDB)
		probes = append(probes, httpapi.Probe{Name: "postgres", Check: pool.Ping})
	} else {
		log.Warn("DATABASE_DSN not set, carts and fallback orders are kept in memory")
		sequences = events.NewMemorySequence()
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	nominatim, err := delivery.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, httpClient)
	if err != nil {
		log.Fatal("geocoder", zap.Error(err))
	}
	var geocoder delivery.Geocoder = nominatim

	var guard checkout.Guard = checkout.NewMemoryGuard()
	if cfg.RedisAddr != "" {
		rdb := kv.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		probes = append(probes, httpapi.Probe{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		guard = kv.NewRedisGuard(rdb, cfg.SubmitLockTTL)
		geocoder = delivery.NewCachedGeocoder(nominatim, kv.NewGeocodeCache(rdb, cfg.GeocodeCacheTTL), log)
	}

	quoter := delivery.NewQuoter(geocoder, delivery.Coordinates{Lat: cfg.ShopLat, Lng: cfg.ShopLng}, cfg.RatePerKm, log)

	var orderTransport checkout.Transport
	switch cfg.Transport {
	case config.TransportWebhook:
		orderTransport = transport.NewWebhook(cfg.WebhookURL, httpClient)
	case config.TransportAMQP:
		conn, ch, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal("dial rabbitmq", zap.Error(err))
		}
		defer conn.Close()
		defer ch.Close()
		probes = append(probes, httpapi.Probe{Name: "rabbitmq", Check: func(context.Context) error {
			if conn.IsClosed() || ch.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}})
		orderTransport = transport.NewRabbit(events.NewPublisher(ch, sequences))
	default:
		orderTransport = transport.NewEmailJS(transport.EmailJSConfig{
			Endpoint:    cfg.EmailJS.Endpoint,
			ServiceID:   cfg.EmailJS.ServiceID,
			TemplateID:  cfg.EmailJS.TemplateID,
			PublicKey:   cfg.EmailJS.PublicKey,
			AccessToken: cfg.EmailJS.AccessToken,
			Currency:    cfg.Currency,
		}, httpClient)
	}

	submitter := checkout.NewSubmitter(orderTransport, store, log)
	carts := cart.NewService(cartRepo, catalog)
	quotes := delivery.NewQuoteBook()
	go quotes.RunSweeper(ctx, cfg.QuoteIdleTTL/4, cfg.QuoteIdleTTL, log)
	checkoutSvc := checkout.NewService(checkout.Deps{
		Carts:     carts,
		Menu:      catalog,
		Quoter:    quoter,
		Quotes:    quotes,
		Submitter: submitter,
		Guard:     guard,
		Logger:    log,
	})

	handler := httpapi.NewHandler(catalog, carts, checkoutSvc, store, log)
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(handler, httpapi.RouterConfig{
			CORSAllowOrigins: cfg.CORSAllowOrigins,
			Logger:           log,
			Probes:           probes,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("checkout-service listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("transport", submitter.TransportName()),
			zap.Int("menu_items", len(catalog.Items())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", zap.Error(err))
	}
}
